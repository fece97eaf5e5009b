package eautext

import (
	"sort"

	"eau-tools/eau"
)

// Compile translates EAU-Text into an EAU serial. Errors wrap eau.ErrMalformedSyntax
// and carry the 1-based source line.
func Compile(src []byte) ([]byte, error) {
	return compile(string(src), 1, 0)
}

type compiler struct {
	depth  int
	song   eau.Song
	chids  [256]bool
	tempo  bool
	events int    // number of events blocks seen
	prev   string // head of the previous global statement
}

func compile(src string, line, depth int) ([]byte, error) {
	if depth > eau.MaxDepth {
		return nil, syntaxErr(line, "drum serials nested deeper than %d", eau.MaxDepth)
	}
	c := &compiler{depth: depth, song: eau.Song{Tempo: eau.DefaultTempo}}
	p := newParser(src, line)
	for {
		st, err := p.statement()
		if err != nil {
			return nil, err
		}
		if st == nil {
			break
		}
		if err := c.global(st); err != nil {
			return nil, err
		}
		c.prev = st.name()
	}
	sort.SliceStable(c.song.Names, func(i, j int) bool {
		a, b := c.song.Names[i], c.song.Names[j]
		if a.Chid != b.Chid {
			return a.Chid < b.Chid
		}
		return a.Noteid < b.Noteid
	})
	serial, err := c.song.Encode()
	if err != nil {
		return nil, syntaxErr(line, "%v", err)
	}
	return serial, nil
}

func (c *compiler) global(st *statement) error {
	switch st.name() {
	case "tempo":
		if c.tempo {
			return syntaxErr(st.line(), "duplicate tempo")
		}
		v, err := st.intArg(1, eau.MaxTempo)
		if err != nil {
			return err
		}
		c.tempo = true
		c.song.Tempo = v
		return nil

	case "chdr":
		if err := st.needBlock(); err != nil {
			return err
		}
		return c.chdr(st)

	case "events":
		if err := st.needBlock(); err != nil {
			return err
		}
		switch c.events {
		case 0:
		case 1:
			if c.prev != "events" {
				return syntaxErr(st.line(), "second events block must follow the first directly")
			}
			c.song.Events = append(c.song.Events, eau.Event{Type: eau.EventLoop})
		default:
			return syntaxErr(st.line(), "at most two events blocks are allowed")
		}
		c.events++
		return c.eventBlock(st.body)

	case "text":
		if st.body != nil || len(st.args) != 3 {
			return st.errorf("expected CHID NOTEID \"NAME\"")
		}
		chid, err := parseInt(st.args[0], 0, 0xff)
		if err != nil {
			return err
		}
		noteid, err := parseInt(st.args[1], 0, 0xff)
		if err != nil {
			return err
		}
		if st.args[2].kind != tokString {
			return syntaxErr(st.args[2].line, "expected string, found %s", st.args[2])
		}
		if noteid == eau.ChannelNameSentinel {
			noteid = 0
		}
		c.addName(chid, noteid, st.args[2].text)
		return nil
	}
	return syntaxErr(st.line(), "unknown statement %q", st.name())
}

func (c *compiler) addName(chid, noteid int, text string) {
	if text == "" {
		return
	}
	c.song.Names = append(c.song.Names, eau.Name{Chid: uint8(chid), Noteid: uint8(noteid), Text: text})
}

func (c *compiler) eventBlock(b *block) error {
	stmts, err := b.parser().all()
	if err != nil {
		return err
	}
	for _, st := range stmts {
		var ev eau.Event
		switch st.name() {
		case "delay":
			ms, err := st.intArg(0, 1<<30)
			if err != nil {
				return err
			}
			ev = eau.Event{Type: eau.EventDelay, Delay: ms}

		case "note":
			if err := st.simple(4); err != nil {
				return err
			}
			limits := [4][2]int{{0, 0xff}, {0, 0x7f}, {0, 0x7f}, {0, eau.MaxDuration}}
			var v [4]int
			for i := range v {
				if v[i], err = parseInt(st.args[i], limits[i][0], limits[i][1]); err != nil {
					return err
				}
			}
			ev = eau.Event{Type: eau.EventNote, Chid: uint8(v[0]), Noteid: uint8(v[1]), Velocity: uint8(v[2]), Duration: v[3]}

		case "wheel":
			if err := st.simple(2); err != nil {
				return err
			}
			chid, err := parseInt(st.args[0], 0, 0xff)
			if err != nil {
				return err
			}
			value, err := parseInt(st.args[1], 0, 0xff)
			if err != nil {
				return err
			}
			ev = eau.Event{Type: eau.EventWheel, Chid: uint8(chid), Wheel: uint8(value)}

		default:
			return syntaxErr(st.line(), "unknown event %q", st.name())
		}
		c.song.Events = append(c.song.Events, ev)
	}
	return nil
}

func (c *compiler) chdr(st *statement) error {
	stmts, err := st.body.parser().all()
	if err != nil {
		return err
	}
	ch := eau.NewChannel(0)
	seen := fieldSet{}
	var name string
	var modecfg, post *statement
	for _, f := range stmts {
		if err := seen.claim(f); err != nil {
			return err
		}
		switch f.name() {
		case "chid":
			v, err := f.intArg(0, 0xff)
			if err != nil {
				return err
			}
			ch.Chid = uint8(v)
		case "name":
			if name, err = f.stringArg(); err != nil {
				return err
			}
		case "trim":
			v, err := f.intArg(0, 0xff)
			if err != nil {
				return err
			}
			ch.Trim = uint8(v)
		case "pan":
			v, err := f.intArg(0, 0xff)
			if err != nil {
				return err
			}
			ch.Pan = uint8(v)
		case "mode":
			if err := f.simple(1); err != nil {
				return err
			}
			if f.args[0].kind == tokIdent {
				m, ok := eau.ParseMode(f.args[0].text)
				if !ok {
					return f.errorf("unknown mode %q", f.args[0].text)
				}
				ch.Mode = m
			} else {
				v, err := parseInt(f.args[0], 0, 0xff)
				if err != nil {
					return err
				}
				ch.Mode = eau.Mode(v)
			}
		case "modecfg":
			if err := f.needBlock(); err != nil {
				return err
			}
			modecfg = f
		case "post":
			if err := f.needBlock(); err != nil {
				return err
			}
			post = f
		default:
			return syntaxErr(f.line(), "unknown chdr field %q", f.name())
		}
	}
	if !seen["chid"] {
		return syntaxErr(st.line(), "chdr without chid")
	}
	if c.chids[ch.Chid] {
		return syntaxErr(st.line(), "duplicate chdr for channel %d", ch.Chid)
	}
	c.chids[ch.Chid] = true
	c.addName(int(ch.Chid), 0, name)

	if modecfg != nil {
		if ch.Config, err = c.modecfg(ch.Mode, ch.Chid, modecfg.body); err != nil {
			return err
		}
	}
	if post != nil {
		if ch.Post, err = compilePost(post.body); err != nil {
			return err
		}
	}
	c.song.Channels = append(c.song.Channels, ch)
	return nil
}

func (c *compiler) modecfg(mode eau.Mode, chid uint8, b *block) ([]byte, error) {
	stmts, err := b.parser().all()
	if err != nil {
		return nil, err
	}
	if raw, ok, err := rawStatements(stmts); ok || err != nil {
		return raw, err
	}
	var cfg eau.ModeConfig
	switch mode {
	case eau.ModeDrum:
		cfg, err = c.drumConfig(chid, stmts)
	case eau.ModeFM:
		cfg, err = fmConfig(stmts)
	case eau.ModeHarsh:
		cfg, err = harshConfig(stmts)
	case eau.ModeHarmonic:
		cfg, err = harmonicConfig(stmts)
	default:
		if len(stmts) == 0 {
			return nil, nil
		}
		return nil, syntaxErr(stmts[0].line(), "mode %s takes raw 0x data only", mode)
	}
	if err != nil {
		return nil, err
	}
	return cfg.Encode(), nil
}

func (c *compiler) drumConfig(chid uint8, stmts []*statement) (*eau.DrumConfig, error) {
	cfg := &eau.DrumConfig{}
	var notes [256]bool
	for _, st := range stmts {
		if st.name() != "drum" {
			return nil, syntaxErr(st.line(), "unknown drum field %q", st.name())
		}
		if err := st.needBlock(); err != nil {
			return nil, err
		}
		fields, err := st.body.parser().all()
		if err != nil {
			return nil, err
		}
		v := eau.DrumVoice{TrimLo: eau.DefaultVoiceTrimLo, TrimHi: eau.DefaultVoiceTrimHi, Pan: eau.DefaultPan}
		seen := fieldSet{}
		var name string
		for _, f := range fields {
			if err := seen.claim(f); err != nil {
				return nil, err
			}
			switch f.name() {
			case "note":
				n, err := f.intArg(0, 0x7f)
				if err != nil {
					return nil, err
				}
				v.Noteid = uint8(n)
			case "name":
				if name, err = f.stringArg(); err != nil {
					return nil, err
				}
			case "trim":
				if f.body != nil {
					return nil, f.errorf("unexpected block")
				}
				lo, hi, rest, err := parseRange(f.args, 0xff)
				if err != nil {
					return nil, err
				}
				if len(rest) != 0 {
					return nil, syntaxErr(rest[0].line, "unexpected %s", rest[0])
				}
				v.TrimLo, v.TrimHi = uint8(lo), uint8(hi)
			case "pan":
				n, err := f.intArg(0, 0xff)
				if err != nil {
					return nil, err
				}
				v.Pan = uint8(n)
			case "serial":
				if f.body == nil {
					// raw form: serial 0xDATA...;
					for _, tok := range f.args {
						b, err := hexBytes(tok)
						if err != nil {
							return nil, err
						}
						v.Serial = append(v.Serial, b...)
					}
					if len(v.Serial) == 0 {
						break
					}
					if err := eau.Validate(v.Serial); err != nil {
						return nil, f.errorf("%v", err)
					}
					break
				}
				if err := f.needBlock(); err != nil {
					return nil, err
				}
				if v.Serial, err = compile(f.body.src, f.body.line, c.depth+1); err != nil {
					return nil, err
				}
				if len(v.Serial) > 0xffff {
					return nil, f.errorf("serial too long (%d bytes)", len(v.Serial))
				}
			default:
				return nil, syntaxErr(f.line(), "unknown drum field %q", f.name())
			}
		}
		if !seen["note"] {
			return nil, syntaxErr(st.line(), "drum voice without note")
		}
		if v.Noteid == 0 && name != "" {
			return nil, syntaxErr(st.line(), "drum voice on note 0 cannot be named, that slot holds the channel name")
		}
		if notes[v.Noteid] {
			return nil, syntaxErr(st.line(), "duplicate drum voice for note %d", v.Noteid)
		}
		notes[v.Noteid] = true
		c.addName(int(chid), int(v.Noteid), name)
		cfg.Voices = append(cfg.Voices, v)
	}
	return cfg, nil
}
