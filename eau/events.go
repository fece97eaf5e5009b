package eau

import (
	"fmt"
	"io"
)

// EventType tags the Event union
type EventType uint8

const (
	EventDelay EventType = iota + 1
	EventNote
	EventWheel
	EventLoop // in-memory only; stored as the header loop offset
)

func (t EventType) String() string {
	switch t {
	case EventDelay:
		return "delay"
	case EventNote:
		return "note"
	case EventWheel:
		return "wheel"
	case EventLoop:
		return "loop"
	}
	return fmt.Sprintf("event(%d)", uint8(t))
}

// Event is one entry of the event stream. Which fields matter depends on Type:
// Delay uses Delay; Note uses Chid, Noteid, Velocity, Duration; Wheel uses Chid, Wheel.
type Event struct {
	Type     EventType
	Delay    int // ms
	Chid     uint8
	Noteid   uint8
	Velocity uint8
	Duration int // ms
	Wheel    uint8
}

const (
	// WheelNeutral is the no-bend wheel value
	WheelNeutral = 0x80

	// MaxDelayRecord is the longest delay one record can carry; longer gaps chain
	MaxDelayRecord = 4096

	// MaxDuration is the longest representable note duration
	MaxDuration = 63 * 256

	opWheel = 0xc0
)

// durationSteps holds the ms per step of each precision tier
var durationSteps = [3]int{4, 32, 256}

// QuantizeDuration picks the finest tier that can hold ms. clamped reports a
// duration beyond MaxDuration.
func QuantizeDuration(ms int) (tier, steps int, clamped bool) {
	if ms < 0 {
		ms = 0
	}
	for tier, step := range durationSteps {
		if n := (ms + step/2) / step; n <= 63 {
			return tier, n, false
		}
	}
	return len(durationSteps) - 1, 63, true
}

// QuantizedDuration returns the duration ms decodes to after encoding
func QuantizedDuration(ms int) int {
	tier, steps, _ := QuantizeDuration(ms)
	return steps * durationSteps[tier]
}

// TierStep returns the quantization step of the tier ms falls into
func TierStep(ms int) int {
	tier, _, _ := QuantizeDuration(ms)
	return durationSteps[tier]
}

// AppendEvent encodes one event. Delays longer than MaxDelayRecord become a
// chain of records; loop markers encode to nothing.
func AppendEvent(dst []byte, ev Event) []byte {
	switch ev.Type {
	case EventDelay:
		ms := ev.Delay
		for ms >= MaxDelayRecord {
			dst = append(dst, 0x7f)
			ms -= MaxDelayRecord
		}
		if ms >= 64 {
			n := ms / 64
			dst = append(dst, 0x40|byte(n-1))
			ms -= n * 64
		}
		if ms > 0 {
			dst = append(dst, byte(ms))
		}
	case EventNote:
		tier, steps, _ := QuantizeDuration(ev.Duration)
		v := uint32(0x80000000) |
			uint32(tier)<<28 |
			uint32(ev.Chid)<<20 |
			uint32(ev.Noteid&0x7f)<<13 |
			uint32(ev.Velocity&0x7f)<<6 |
			uint32(steps)
		dst = append(dst, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
	case EventWheel:
		dst = append(dst, opWheel, ev.Chid, ev.Wheel)
	}
	return dst
}

// EncodeEvents encodes a sequence and returns the loop offset of the first
// loop marker. Adjacent delays are summed into one canonical chain so that a
// decoded sequence re-encodes to the same bytes.
func EncodeEvents(events []Event) (data []byte, loop int) {
	loopSet := false
	pending := 0
	flush := func() {
		if pending > 0 {
			data = AppendEvent(data, Event{Type: EventDelay, Delay: pending})
			pending = 0
		}
	}
	for _, ev := range events {
		switch ev.Type {
		case EventDelay:
			pending += ev.Delay
			continue
		case EventLoop:
			flush()
			if !loopSet {
				loop = len(data)
				loopSet = true
			}
			continue
		}
		flush()
		data = AppendEvent(data, ev)
	}
	flush()
	return data, loop
}

// EventReader streams events out of an events region. When loop is nonzero a
// Loop event is produced as the cursor reaches that offset.
type EventReader struct {
	src      []byte
	pos      int
	loop     int
	loopSent bool
}

func NewEventReader(events []byte, loop int) *EventReader {
	return &EventReader{src: events, loop: loop, loopSent: loop <= 0}
}

// Pos returns the byte offset of the next record
func (r *EventReader) Pos() int { return r.pos }

// Next decodes the next event, or returns io.EOF at the end of the region.
// A delay record yields one Delay event; chained records are not merged.
func (r *EventReader) Next() (Event, error) {
	if !r.loopSent && r.pos >= r.loop {
		r.loopSent = true
		if r.pos != r.loop {
			return Event{}, framingErr("events", r.loop, "loop offset inside a record")
		}
		return Event{Type: EventLoop}, nil
	}
	if r.pos >= len(r.src) {
		return Event{}, io.EOF
	}
	lead := r.src[r.pos]
	switch {
	case lead < 0x40:
		r.pos++
		return Event{Type: EventDelay, Delay: int(lead)}, nil
	case lead < 0x80:
		r.pos++
		return Event{Type: EventDelay, Delay: (int(lead&0x3f) + 1) * 64}, nil
	case lead < 0xc0:
		if r.pos+4 > len(r.src) {
			return Event{}, framingErr("events", r.pos, "short note record")
		}
		b := r.src[r.pos:]
		v := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
		tier := int(v>>28) & 3
		if tier >= len(durationSteps) {
			return Event{}, framingErr("events", r.pos, "reserved duration tier")
		}
		r.pos += 4
		return Event{
			Type:     EventNote,
			Chid:     uint8(v >> 20),
			Noteid:   uint8(v>>13) & 0x7f,
			Velocity: uint8(v>>6) & 0x7f,
			Duration: int(v&0x3f) * durationSteps[tier],
		}, nil
	case lead == opWheel:
		if r.pos+3 > len(r.src) {
			return Event{}, framingErr("events", r.pos, "short wheel record")
		}
		ev := Event{Type: EventWheel, Chid: r.src[r.pos+1], Wheel: r.src[r.pos+2]}
		r.pos += 3
		return ev, nil
	}
	return Event{}, framingErr("events", r.pos, "unknown opcode 0x%02x", lead)
}

// ReadEvents decodes a whole events region
func ReadEvents(events []byte, loop int) ([]Event, error) {
	var out []Event
	r := NewEventReader(events, loop)
	for {
		ev, err := r.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
}
