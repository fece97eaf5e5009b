package eaumidi

import (
	"fmt"
	"io"
	"math"
	"sort"

	"gitlab.com/gomidi/midi/v2/smf"

	"eau-tools/eau"
)

// MaxHeldNotes bounds the number of notes the importer tracks at once
const MaxHeldNotes = 64

const (
	ccBankSelect = 0
	ccVolume     = 7
	ccPan        = 10
	drumChannel  = 9
)

// ImportOptions controls Import. Both fields may be nil.
type ImportOptions struct {
	Instruments InstrumentStore
	Warn        eau.WarnFunc
}

// Import reads a Standard MIDI File and returns the equivalent EAU serial.
// Every track is merged by absolute time; MIDI channels become chids.
func Import(r io.Reader, opts ImportOptions) ([]byte, error) {
	sm, err := smf.ReadFrom(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", eau.ErrUnsupportedFormat, err)
	}
	return ImportSMF(sm, opts)
}

// ImportSMF converts an already parsed file
func ImportSMF(sm *smf.SMF, opts ImportOptions) ([]byte, error) {
	ticks, ok := sm.TimeFormat.(smf.MetricTicks)
	if !ok || ticks == 0 {
		return nil, fmt.Errorf("%w: only metric time divisions are supported", eau.ErrUnsupportedFormat)
	}
	im := &importer{opts: opts, timeline: mergeTracks(sm, uint16(ticks))}
	im.scanHeaders()
	song := &eau.Song{Tempo: im.tempo, Names: im.names}
	song.Channels = im.buildChannels()
	song.Events = im.buildEvents()
	return song.Encode()
}

// timedMessage is one message of the merged timeline, placed in milliseconds
type timedMessage struct {
	ms  int
	msg smf.Message
}

// mergeTracks flattens all tracks into one time-ordered list and converts ticks
// to milliseconds along the tempo map
func mergeTracks(sm *smf.SMF, resolution uint16) []timedMessage {
	type tickMessage struct {
		tick uint64
		msg  smf.Message
	}
	var all []tickMessage
	for _, track := range sm.Tracks {
		var tick uint64
		for _, ev := range track {
			tick += uint64(ev.Delta)
			all = append(all, tickMessage{tick, ev.Message})
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].tick < all[j].tick })

	out := make([]timedMessage, len(all))
	usPerQuarter := 500000.0
	var lastTick uint64
	var us float64
	for i, tm := range all {
		us += float64(tm.tick-lastTick) * usPerQuarter / float64(resolution)
		lastTick = tm.tick
		out[i] = timedMessage{ms: int(math.Round(us / 1000)), msg: tm.msg}
		var bpm float64
		if tm.msg.GetMetaTempo(&bpm) && bpm > 0 {
			usPerQuarter = 60000000 / bpm
		}
	}
	return out
}

// channelState accumulates what pass one learns about a MIDI channel
type channelState struct {
	bank, program uint8
	trim, pan     uint8
	trimSeen      bool
	panSeen       bool
	started       bool
	used          [128]bool
}

type hold struct {
	chid, noteid uint8
	event        int // index into events
	start        int
}

type importer struct {
	opts     ImportOptions
	timeline []timedMessage

	tempo    int
	tempoSet bool
	channels [16]channelState
	blob     []eau.Channel
	names    []eau.Name
}

// scanHeaders is pass one: tempo, controllers, programs, used notes and the
// private channel and name blobs
func (im *importer) scanHeaders() {
	im.tempo = eau.DefaultTempo
	im.channels[drumChannel].bank = 1
	for _, tm := range im.timeline {
		msg := tm.msg
		var ch, a, b uint8
		var bpm float64
		switch {
		case msg.GetMetaTempo(&bpm):
			if !im.tempoSet && bpm > 0 {
				im.tempo = min(max(int(math.Round(60000/bpm)), 1), eau.MaxTempo)
				im.tempoSet = true
			}
		case msg.GetNoteStart(&ch, &a, &b):
			st := &im.channels[ch]
			st.started = true
			st.used[a&0x7f] = true
		case msg.GetProgramChange(&ch, &a):
			if st := &im.channels[ch]; !st.started {
				st.program = a
			}
		case msg.GetControlChange(&ch, &a, &b):
			st := &im.channels[ch]
			switch a {
			case ccBankSelect:
				if !st.started {
					st.bank = b
				}
			case ccVolume:
				if !st.started || !st.trimSeen {
					st.trim, st.trimSeen = expand7(b), true
				}
			case ccPan:
				if !st.started || !st.panSeen {
					st.pan, st.panSeen = expand7(b), true
				}
			}
		default:
			if data, ok := taggedBlob(msg, tagChannels); ok && im.blob == nil {
				channels, err := eau.ReadChannels(data)
				if err != nil {
					im.opts.Warn.Warnf(eau.ErrMalformedFraming, "ignoring embedded channel headers: %v", err)
					continue
				}
				im.blob = channels
			} else if data, ok := taggedBlob(msg, tagNames); ok && im.names == nil {
				names, err := eau.ParseNames(data)
				if err != nil {
					im.opts.Warn.Warnf(eau.ErrMalformedFraming, "ignoring embedded names: %v", err)
					continue
				}
				im.names = names
			}
		}
	}
}

// expand7 stretches a 7-bit controller value over the full byte range
func expand7(v uint8) uint8 {
	v &= 0x7f
	return v<<1 | v>>6
}

// buildChannels passes embedded headers through and synthesizes the rest
func (im *importer) buildChannels() []eau.Channel {
	var out []eau.Channel
	var have [256]bool
	for _, ch := range im.blob {
		have[ch.Chid] = true
		out = append(out, ch)
	}
	for chid := range im.channels {
		st := &im.channels[chid]
		if !st.started || have[chid] {
			continue
		}
		out = append(out, im.synthesize(uint8(chid), st))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Chid < out[j].Chid })
	return out
}

func (im *importer) synthesize(chid uint8, st *channelState) eau.Channel {
	fqpid := int(st.bank)<<7 | int(st.program)
	ch, id, ok := resolve(im.opts.Instruments, fqpid)
	if !ok {
		im.opts.Warn.Warnf(eau.ErrInstrumentNotResolved, "channel %d: no instrument for program 0x%03x, using noop", chid, fqpid)
		ch = eau.NewChannel(chid)
	} else if id != fqpid {
		im.opts.Warn.Warnf(eau.ErrInstrumentNotResolved, "channel %d: program 0x%03x substituted by 0x%03x", chid, fqpid, id)
	}
	ch.Chid = chid
	if ch.Mode == eau.ModeDrum {
		ch.Config = filterKit(ch.Config, &st.used)
	}
	if st.trimSeen {
		ch.Trim = st.trim
	}
	if st.panSeen {
		ch.Pan = st.pan
	}
	return ch
}

// filterKit keeps the drum voices that are actually played. An undecodable
// config is kept as is.
func filterKit(config []byte, used *[128]bool) []byte {
	kit, _, err := eau.DecodeDrum(config)
	if err != nil {
		return config
	}
	return kit.Filter(used).Encode()
}

// buildEvents is pass two
func (im *importer) buildEvents() []eau.Event {
	var events []eau.Event
	var holds []hold
	var wheel [16]uint8
	for i := range wheel {
		wheel[i] = eau.WheelNeutral
	}
	now := 0
	loopSet := false

	advance := func(ms int) {
		if ms > now {
			events = append(events, eau.Event{Type: eau.EventDelay, Delay: ms - now})
			now = ms
		}
	}
	release := func(i, at int) {
		h := holds[i]
		d := at - h.start
		if d > eau.MaxDuration {
			im.opts.Warn.Warnf(eau.ErrPrecisionLoss, "note %d on channel %d held %d ms, clamped to %d", h.noteid, h.chid, d, eau.MaxDuration)
			d = eau.MaxDuration
		}
		events[h.event].Duration = d
		holds = append(holds[:i], holds[i+1:]...)
	}
	findHold := func(chid, noteid uint8) int {
		for i, h := range holds {
			if h.chid == chid && h.noteid == noteid {
				return i
			}
		}
		return -1
	}

	end := 0
	for _, tm := range im.timeline {
		end = max(end, tm.ms)
		msg := tm.msg
		var ch, key, vel uint8
		var rel int16
		var abs uint16
		switch {
		case msg.GetNoteStart(&ch, &key, &vel):
			advance(tm.ms)
			if i := findHold(ch, key); i >= 0 {
				release(i, tm.ms)
			}
			if len(holds) >= MaxHeldNotes {
				im.opts.Warn.Warnf(eau.ErrPrecisionLoss, "more than %d notes held, releasing the oldest", MaxHeldNotes)
				release(0, tm.ms)
			}
			events = append(events, eau.Event{Type: eau.EventNote, Chid: ch, Noteid: key & 0x7f, Velocity: vel & 0x7f})
			holds = append(holds, hold{chid: ch, noteid: key, event: len(events) - 1, start: tm.ms})

		case msg.GetNoteEnd(&ch, &key):
			if i := findHold(ch, key); i >= 0 {
				release(i, tm.ms)
			}

		case msg.GetPitchBend(&ch, &rel, &abs):
			v := uint8(abs >> 6)
			if v == wheel[ch] {
				continue
			}
			wheel[ch] = v
			advance(tm.ms)
			events = append(events, eau.Event{Type: eau.EventWheel, Chid: ch, Wheel: v})

		default:
			if isLoopCue(msg) && !loopSet {
				advance(tm.ms)
				events = append(events, eau.Event{Type: eau.EventLoop})
				loopSet = true
			}
		}
	}
	for _, h := range holds {
		im.opts.Warn.Warnf(eau.ErrPrecisionLoss, "note %d on channel %d never released", h.noteid, h.chid)
	}
	advance(end)
	return events
}
