package eaumidi

import (
	"fmt"
	"io"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"eau-tools/eau"
)

// ExportOptions controls Export
type ExportOptions struct {
	// StripNames leaves the text namespace out of the file
	StripNames bool
	Warn       eau.WarnFunc
}

// Export writes an EAU serial as a Standard MIDI File. The time division is the
// song tempo, so one tick is one millisecond.
func Export(w io.Writer, src []byte, opts ExportOptions) error {
	sm, err := ExportSMF(src, opts)
	if err != nil {
		return err
	}
	_, err = sm.WriteTo(w)
	return err
}

// scheduledOff is a pending Note-Off
type scheduledOff struct {
	at           int
	chid, noteid uint8
}

type exporter struct {
	opts  ExportOptions
	track smf.Track
	tick  int // time of the last message written
	holds []scheduledOff
}

// ExportSMF builds the SMF without writing it
func ExportSMF(src []byte, opts ExportOptions) (*smf.SMF, error) {
	song, err := eau.Decode(src)
	if err != nil {
		return nil, err
	}
	ex := &exporter{opts: opts}
	ex.header(song)
	if err := ex.events(song.Events); err != nil {
		return nil, err
	}

	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(song.Tempo)
	if err := sm.Add(ex.track); err != nil {
		return nil, err
	}
	return sm, nil
}

func (ex *exporter) emit(at int, msg []byte) {
	ex.track.Add(uint32(at-ex.tick), msg)
	ex.tick = at
}

func (ex *exporter) header(song *eau.Song) {
	if !ex.opts.StripNames {
		if name := song.Name(0, 0); name != "" {
			ex.emit(0, smf.MetaTrackSequenceName(name))
		}
	}
	ex.emit(0, smf.MetaTempo(60000/float64(song.Tempo)))

	chdr, err := appendChannels(song.Channels)
	if err == nil && len(chdr) > 0 {
		ex.emit(0, smf.MetaSequencerData(append([]byte(tagChannels), chdr...)))
	}
	if !ex.opts.StripNames && len(song.Names) > 0 {
		ex.emit(0, smf.MetaSequencerData(eau.AppendNames([]byte(tagNames), song.Names)))
	}

	for _, ch := range song.Channels {
		if ch.Chid > 15 {
			continue
		}
		ex.emit(0, midi.ControlChange(ch.Chid, ccVolume, ch.Trim>>1))
		ex.emit(0, midi.ControlChange(ch.Chid, ccPan, ch.Pan>>1))
	}
}

func appendChannels(channels []eau.Channel) ([]byte, error) {
	var out []byte
	for i := range channels {
		var err error
		if out, err = channels[i].AppendTo(out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// flush writes every Note-Off due at or before t
func (ex *exporter) flush(t int) {
	for len(ex.holds) > 0 && ex.holds[0].at <= t {
		h := ex.holds[0]
		ex.holds = ex.holds[1:]
		ex.emit(h.at, midi.NoteOff(h.chid, h.noteid))
	}
}

func (ex *exporter) schedule(off scheduledOff) {
	i := sort.Search(len(ex.holds), func(i int) bool { return ex.holds[i].at > off.at })
	ex.holds = append(ex.holds, scheduledOff{})
	copy(ex.holds[i+1:], ex.holds[i:])
	ex.holds[i] = off
}

func (ex *exporter) events(events []eau.Event) error {
	now := 0
	dropped := 0
	for _, ev := range events {
		if ev.Type == eau.EventDelay {
			now += ev.Delay
			continue
		}
		// offs due now go ahead of anything else at this tick
		ex.flush(now)
		if ev.Type == eau.EventLoop {
			ex.emit(now, smf.MetaCuepoint(loopCue))
			continue
		}
		if ev.Chid > 15 {
			dropped++
			continue
		}
		switch ev.Type {
		case eau.EventNote:
			vel := ev.Velocity
			if vel == 0 {
				ex.opts.Warn.Warnf(eau.ErrPrecisionLoss, "note %d on channel %d has velocity 0, written as 1", ev.Noteid, ev.Chid)
				vel = 1
			}
			ex.emit(now, midi.NoteOn(ev.Chid, ev.Noteid, vel))
			ex.schedule(scheduledOff{at: now + ev.Duration, chid: ev.Chid, noteid: ev.Noteid})
		case eau.EventWheel:
			ex.emit(now, midi.Pitchbend(ev.Chid, int16((int(ev.Wheel)-eau.WheelNeutral)*64)))
		default:
			return fmt.Errorf("%w: unexpected %s event", eau.ErrMalformedFraming, ev.Type)
		}
	}
	if dropped > 0 {
		ex.opts.Warn.Warnf(eau.ErrPrecisionLoss, "%d events on channels above 15 dropped", dropped)
	}
	// held notes still ring out for their full duration
	end := now
	if n := len(ex.holds); n > 0 {
		end = max(end, ex.holds[n-1].at)
	}
	ex.flush(end)
	ex.track.Close(uint32(end - ex.tick))
	return nil
}
