package eautext

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	"eau-tools/eau"
)

// Decompile renders an EAU serial as EAU-Text. Compiling the result gives back
// the same serial. A modecfg with bytes the decoder does not understand is
// reported through warn and written as raw 0x data.
func Decompile(src []byte, warn eau.WarnFunc) ([]byte, error) {
	d := &decompiler{warn: warn}
	if err := d.song(src, 0); err != nil {
		return nil, err
	}
	return []byte(d.out.String()), nil
}

type decompiler struct {
	out    strings.Builder
	indent int
	warn   eau.WarnFunc
}

func (d *decompiler) line(format string, args ...any) {
	d.out.WriteString(strings.Repeat("  ", d.indent))
	fmt.Fprintf(&d.out, format, args...)
	d.out.WriteByte('\n')
}

func (d *decompiler) open(head string) {
	d.line("%s {", head)
	d.indent++
}

func (d *decompiler) close() {
	d.indent--
	d.line("}")
}

// nameTable hands out each name once, so leftovers can be written as text statements
type nameTable struct {
	names []eau.Name
	used  []bool
}

func (t *nameTable) take(chid, noteid uint8) (string, bool) {
	for i, n := range t.names {
		if !t.used[i] && n.Chid == chid && n.Noteid == noteid {
			t.used[i] = true
			return n.Text, true
		}
	}
	return "", false
}

func (d *decompiler) song(src []byte, depth int) error {
	if depth > eau.MaxDepth {
		return fmt.Errorf("%w: drum serials nested deeper than %d", eau.ErrMalformedFraming, eau.MaxDepth)
	}
	song, err := eau.Decode(src)
	if err != nil {
		return err
	}
	names := &nameTable{names: song.Names, used: make([]bool, len(song.Names))}

	blank := false
	gap := func() {
		if blank {
			d.out.WriteByte('\n')
		}
		blank = true
	}

	if song.Tempo != eau.DefaultTempo {
		d.line("tempo %d;", song.Tempo)
		blank = true
	}

	for i := range song.Channels {
		gap()
		if err := d.channel(&song.Channels[i], names, depth); err != nil {
			return err
		}
	}

	if len(song.Events) > 0 {
		gap()
		d.events(song.Events)
	}

	for i, n := range names.names {
		if names.used[i] {
			continue
		}
		d.line("text %d %d %s;", n.Chid, n.Noteid, quote(n.Text))
	}
	return nil
}

func (d *decompiler) events(events []eau.Event) {
	d.open("events")
	pending := 0
	flush := func() {
		if pending > 0 {
			d.line("delay %d;", pending)
			pending = 0
		}
	}
	for _, ev := range events {
		switch ev.Type {
		case eau.EventDelay:
			pending += ev.Delay
			continue
		case eau.EventLoop:
			flush()
			d.close()
			d.open("events")
			continue
		}
		flush()
		switch ev.Type {
		case eau.EventNote:
			d.line("note %d %d %d %d;", ev.Chid, ev.Noteid, ev.Velocity, ev.Duration)
		case eau.EventWheel:
			d.line("wheel %d 0x%02x;", ev.Chid, ev.Wheel)
		}
	}
	flush()
	d.close()
}

func (d *decompiler) channel(ch *eau.Channel, names *nameTable, depth int) error {
	d.open("chdr")
	d.line("chid %d;", ch.Chid)
	if name, ok := names.take(ch.Chid, 0); ok {
		d.line("name %s;", quote(name))
	}
	if ch.Trim != eau.DefaultTrim {
		d.line("trim 0x%02x;", ch.Trim)
	}
	if ch.Pan != eau.DefaultPan {
		d.line("pan 0x%02x;", ch.Pan)
	}
	if ch.Mode != eau.ModeNoop {
		d.line("mode %s;", ch.Mode)
	}
	if len(ch.Config) > 0 {
		d.open("modecfg")
		if err := d.modecfg(ch, names, depth); err != nil {
			return err
		}
		d.close()
	}
	if len(ch.Post) > 0 {
		d.open("post")
		if err := d.post(ch.Post); err != nil {
			return err
		}
		d.close()
	}
	d.close()
	return nil
}

// raw writes data as 0x literals, 32 bytes per statement
func (d *decompiler) raw(data []byte) {
	for len(data) > 0 {
		n := min(len(data), 32)
		d.line("0x%s;", hex.EncodeToString(data[:n]))
		data = data[n:]
	}
}

func (d *decompiler) modecfg(ch *eau.Channel, names *nameTable, depth int) error {
	cfg, rest, err := ch.DecodeConfig()
	if err != nil {
		d.warn.Warnf(eau.ErrTrailingData, "channel %d: undecodable %s modecfg, kept raw: %v", ch.Chid, ch.Mode, err)
		d.raw(ch.Config)
		return nil
	}
	if len(rest) > 0 {
		d.warn.Warnf(eau.ErrTrailingData, "channel %d: %d unparsed bytes in %s modecfg, kept raw", ch.Chid, len(rest), ch.Mode)
		d.raw(ch.Config)
		return nil
	}
	if !bytes.Equal(cfg.Encode(), ch.Config) {
		// not in canonical form; only raw data reproduces it exactly
		d.raw(ch.Config)
		return nil
	}

	switch c := cfg.(type) {
	case *eau.FMConfig:
		if c.Rate != eau.DefaultFMRate {
			d.line("rate 0x%04x;", c.Rate)
		}
		if c.Range != 0 {
			d.line("range 0x%04x;", c.Range)
		}
		d.envelope("levelenv", &c.LevelEnv)
		d.envelope("rangeenv", &c.RangeEnv)
		d.envelope("pitchenv", &c.PitchEnv)
		if c.WheelRange != eau.DefaultWheelRange {
			d.line("wheel %d;", c.WheelRange)
		}
		if c.LFORate != 0 {
			d.line("lforate 0x%04x;", c.LFORate)
		}
		if c.LFODepth != eau.DefaultLFODepth {
			d.line("lfodepth 0x%02x;", c.LFODepth)
		}
		if c.LFOPhase != 0 {
			d.line("lfophase 0x%02x;", c.LFOPhase)
		}

	case *eau.HarshConfig:
		if c.Shape != eau.ShapeSine {
			if int(c.Shape) < len(eau.ShapeNames) {
				d.line("shape %s;", eau.ShapeNames[c.Shape])
			} else {
				d.line("shape %d;", c.Shape)
			}
		}
		d.envelope("levelenv", &c.LevelEnv)
		d.envelope("pitchenv", &c.PitchEnv)
		if c.WheelRange != eau.DefaultWheelRange {
			d.line("wheel %d;", c.WheelRange)
		}

	case *eau.HarmonicConfig:
		if !(len(c.Harmonics) == 1 && c.Harmonics[0] == 0xffff) {
			parts := make([]string, len(c.Harmonics))
			for i, h := range c.Harmonics {
				parts[i] = fmt.Sprintf("0x%04x", h)
			}
			d.line("harmonics %s;", strings.Join(parts, " "))
		}
		d.envelope("levelenv", &c.LevelEnv)
		d.envelope("pitchenv", &c.PitchEnv)
		if c.WheelRange != eau.DefaultWheelRange {
			d.line("wheel %d;", c.WheelRange)
		}

	case *eau.DrumConfig:
		if !writableKit(c) {
			d.raw(ch.Config)
			return nil
		}
		for i := range c.Voices {
			if err := d.voice(ch.Chid, &c.Voices[i], names, depth); err != nil {
				return err
			}
		}

	default:
		d.raw(ch.Config)
	}
	return nil
}

// writableKit reports whether every voice can be expressed as a drum block
func writableKit(c *eau.DrumConfig) bool {
	var seen [256]bool
	for _, v := range c.Voices {
		if v.Noteid > 0x7f || seen[v.Noteid] {
			return false
		}
		seen[v.Noteid] = true
	}
	return true
}

func (d *decompiler) voice(chid uint8, v *eau.DrumVoice, names *nameTable, depth int) error {
	d.open("drum")
	d.line("note %d;", v.Noteid)
	// (chid, 0) is the channel name slot
	if v.Noteid != 0 {
		if name, ok := names.take(chid, v.Noteid); ok {
			d.line("name %s;", quote(name))
		}
	}
	if v.TrimLo != eau.DefaultVoiceTrimLo || v.TrimHi != eau.DefaultVoiceTrimHi {
		d.line("trim %s;", pair(int(v.TrimLo), int(v.TrimHi), "0x%02x"))
	}
	if v.Pan != eau.DefaultPan {
		d.line("pan 0x%02x;", v.Pan)
	}
	if len(v.Serial) > 0 {
		if text, ok := d.nested(v.Serial, depth+1); ok {
			d.open("serial")
			for _, l := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
				if l == "" {
					d.out.WriteByte('\n')
					continue
				}
				d.line("%s", l)
			}
			d.close()
		} else {
			d.line("serial 0x%s;", hex.EncodeToString(v.Serial))
		}
	}
	d.close()
	return nil
}

// nested decompiles a voice serial on its own and keeps the text only if it
// compiles back to the same bytes
func (d *decompiler) nested(serial []byte, depth int) (string, bool) {
	sub := &decompiler{warn: d.warn}
	if err := sub.song(serial, depth); err != nil {
		return "", false
	}
	text := sub.out.String()
	again, err := compile(text, 1, depth)
	if err != nil || !bytes.Equal(again, serial) {
		return "", false
	}
	return text, true
}

func (d *decompiler) post(src []byte) error {
	stages, err := eau.ParsePost(src)
	if err != nil {
		return err
	}
	for _, s := range stages {
		if !d.knownStage(s) {
			if len(s.Payload) == 0 {
				d.line("stage %d;", s.ID)
			} else {
				d.line("stage %d 0x%s;", s.ID, hex.EncodeToString(s.Payload))
			}
		}
	}
	return nil
}

// knownStage writes a structured stage, or reports false if only the raw form is exact
func (d *decompiler) knownStage(s eau.PostStage) bool {
	switch s.ID {
	case eau.StageDelay:
		st, rest := eau.DecodeDelayStage(s.Payload)
		if len(rest) > 0 || !bytes.Equal(st.Encode(), s.Payload) {
			return false
		}
		args := trimDefaults(
			[]int{int(st.Period), int(st.Dry), int(st.Wet), int(st.Store), int(st.Feedback)},
			[]int{250, 0x80, 0x80, 0x80, 0x80})
		d.line("delay%s;", joinInts(args, "%d", "0x%02x"))
	case eau.StageTremolo:
		st, rest := eau.DecodeTremoloStage(s.Payload)
		if len(rest) > 0 || !bytes.Equal(st.Encode(), s.Payload) {
			return false
		}
		args := trimDefaults([]int{int(st.Period), int(st.Depth), int(st.Phase)}, []int{500, 0x80, 0})
		d.line("tremolo%s;", joinInts(args, "%d", "0x%02x"))
	case eau.StageWaveshaper:
		st, rest := eau.DecodeWaveshaperStage(s.Payload)
		if len(rest) > 0 || !bytes.Equal(st.Encode(), s.Payload) {
			return false
		}
		levels := make([]int, len(st.Levels))
		for i, l := range st.Levels {
			levels[i] = int(l)
		}
		d.line("waveshaper%s;", joinInts(levels, "0x%04x", "0x%04x"))
	default:
		return false
	}
	return true
}

func trimDefaults(values, defaults []int) []int {
	n := len(values)
	for n > 0 && values[n-1] == defaults[n-1] {
		n--
	}
	return values[:n]
}

// joinInts formats the first value with first and the rest with others, each
// preceded by a space
func joinInts(values []int, first, others string) string {
	var b strings.Builder
	for i, v := range values {
		b.WriteByte(' ')
		if i == 0 {
			fmt.Fprintf(&b, first, v)
		} else {
			fmt.Fprintf(&b, others, v)
		}
	}
	return b.String()
}

func pair(lo, hi int, format string) string {
	if lo == hi {
		return fmt.Sprintf(format, lo)
	}
	return fmt.Sprintf(format+".."+format, lo, hi)
}

func (d *decompiler) envelope(field string, e *eau.Envelope) {
	if e.IsDefault() {
		return
	}
	var parts []string
	if e.HasInit {
		parts = append(parts, "="+pair(int(e.Init), int(e.InitHi), "0x%04x"))
	}
	for i, p := range e.Points {
		leg := "+" + pair(int(p.Time), int(p.TimeHi), "%d") + " =" + pair(int(p.Level), int(p.LevelHi), "0x%04x")
		if e.HasSustain && e.Sustain == i {
			leg += "*"
		}
		parts = append(parts, leg)
	}
	d.line("%s %s;", field, strings.Join(parts, " "))
}

// quote writes s as a string literal the lexer reads back byte for byte
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '"' || c == '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\t':
			b.WriteString(`\t`)
		case c < 0x20 || c >= 0x7f:
			fmt.Fprintf(&b, `\x%02x`, c)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}
