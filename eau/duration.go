package eau

import (
	"fmt"
	"io"
)

// DurationMethod selects how EstimateDuration measures a song
type DurationMethod int

const (
	// MethodDelay sums delays only
	MethodDelay DurationMethod = iota
	// MethodRelease is the time the last note is released, or the delay sum if later
	MethodRelease
	// MethodRoundUp is MethodRelease rounded up to a whole number of beats
	MethodRoundUp
	// MethodVoiceTail plays each note's level envelope through to silence
	MethodVoiceTail
)

var durationMethodNames = []string{"delay", "release", "roundup", "voicetail"}

func (m DurationMethod) String() string {
	if m >= 0 && int(m) < len(durationMethodNames) {
		return durationMethodNames[m]
	}
	return fmt.Sprintf("method(%d)", int(m))
}

// ParseDurationMethod resolves a method name as printed by String
func ParseDurationMethod(name string) (DurationMethod, bool) {
	for i, n := range durationMethodNames {
		if n == name {
			return DurationMethod(i), true
		}
	}
	return 0, false
}

// AllDurationMethods lists the methods in increasing cost
var AllDurationMethods = []DurationMethod{MethodDelay, MethodRelease, MethodRoundUp, MethodVoiceTail}

// EstimateDuration returns the length of an EAU serial in ms
func EstimateDuration(src []byte, method DurationMethod) (int, error) {
	return estimate(src, method, 0)
}

func estimate(src []byte, method DurationMethod, depth int) (int, error) {
	if depth > MaxDepth {
		return 0, framingErr("chdr", 0, "drum voices nested deeper than %d", MaxDepth)
	}
	f, err := Split(src)
	if err != nil {
		return 0, err
	}
	switch method {
	case MethodDelay:
		var sum int
		err := walkEvents(f, func(now int, ev Event) {
			if ev.Type == EventDelay {
				sum += ev.Delay
			}
		})
		return sum, err

	case MethodRelease, MethodRoundUp:
		end, err := releaseTime(f)
		if err != nil || method == MethodRelease {
			return end, err
		}
		return roundUp(end, f.Tempo), nil

	case MethodVoiceTail:
		tails, err := buildTails(f, depth)
		if err != nil {
			return 0, err
		}
		var end int
		err = walkEvents(f, func(now int, ev Event) {
			if ev.Type == EventNote {
				end = max(end, now+tails.noteLength(ev))
			}
		})
		return end, err
	}
	return 0, fmt.Errorf("unknown duration method %d", int(method))
}

func roundUp(ms, tempo int) int {
	if tempo <= 0 || ms%tempo == 0 {
		return ms
	}
	return (ms/tempo + 1) * tempo
}

// walkEvents visits each event with the delay sum preceding it
func walkEvents(f *File, visit func(now int, ev Event)) error {
	r := NewEventReader(f.Events, f.Loop)
	now := 0
	for {
		ev, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		visit(now, ev)
		if ev.Type == EventDelay {
			now += ev.Delay
		}
	}
}

func releaseTime(f *File) (int, error) {
	var end, now int
	err := walkEvents(f, func(at int, ev Event) {
		switch ev.Type {
		case EventDelay:
			now = at + ev.Delay
		case EventNote:
			end = max(end, at+ev.Duration)
		}
	})
	return max(end, now), err
}

type tailKind uint8

const (
	tailHeld   tailKind = iota // no header or unknown mode: sounds for its duration
	tailSilent                 // noop
	tailTone                   // level envelope
	tailDrum                   // fixed length per noteid
)

type channelTail struct {
	kind tailKind
	env  *Envelope
	drum map[uint8]int
}

type tailTable [256]channelTail

func (t *tailTable) noteLength(ev Event) int {
	ct := &t[ev.Chid]
	switch ct.kind {
	case tailSilent:
		return 0
	case tailTone:
		attack, release, sustained := ct.env.Timing(ev.Velocity)
		if !sustained {
			return attack
		}
		return max(ev.Duration, attack) + release
	case tailDrum:
		return ct.drum[ev.Noteid]
	}
	return ev.Duration
}

// buildTails precomputes release timing for every channel header
func buildTails(f *File, depth int) (*tailTable, error) {
	t := &tailTable{}
	cr := NewChannelReader(f.Chdr)
	for {
		c, err := cr.Next()
		if err == io.EOF {
			return t, nil
		}
		if err != nil {
			return nil, err
		}
		ct := &t[c.Chid]
		switch c.Mode {
		case ModeNoop:
			ct.kind = tailSilent
			continue
		case ModeDrum, ModeFM, ModeHarsh, ModeHarmonic:
		default:
			continue
		}
		cfg, _, err := c.DecodeConfig()
		if err != nil {
			return nil, err
		}
		if drum, ok := cfg.(*DrumConfig); ok {
			ct.kind = tailDrum
			ct.drum = make(map[uint8]int, len(drum.Voices))
			for _, v := range drum.Voices {
				if len(v.Serial) == 0 {
					continue
				}
				ms, err := estimate(v.Serial, MethodVoiceTail, depth+1)
				if err != nil {
					return nil, err
				}
				ct.drum[v.Noteid] = ms
			}
			continue
		}
		env := LevelEnvelope(cfg)
		if env.IsDefault() {
			env = &DefaultLevelEnvelope
		}
		ct.kind = tailTone
		ct.env = env
	}
}
