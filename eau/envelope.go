package eau

import (
	"encoding/binary"
)

// Envelope flag bits
const (
	EnvInit     = 0x01
	EnvVelocity = 0x02
	EnvSustain  = 0x04

	MaxEnvelopePoints = 15
)

// EnvelopePoint is one leg of an envelope: reach Level after Time ms.
// The Hi fields are the values at velocity 127; without velocity sensitivity
// they equal the low values.
type EnvelopePoint struct {
	Time    uint16
	TimeHi  uint16
	Level   uint16
	LevelHi uint16
}

// Envelope is a breakpoint curve. The zero value is the "synthesizer default"
// envelope, encoded as two zero bytes.
type Envelope struct {
	HasInit    bool
	Init       uint16
	InitHi     uint16
	Points     []EnvelopePoint
	HasSustain bool
	Sustain    int // index into Points, valid when HasSustain
}

// IsDefault reports whether e encodes as the empty envelope
func (e *Envelope) IsDefault() bool {
	return !e.HasInit && len(e.Points) == 0 && !e.HasSustain
}

// VelocitySensitive reports whether any low/high pair differs
func (e *Envelope) VelocitySensitive() bool {
	if e.HasInit && e.Init != e.InitHi {
		return true
	}
	for _, p := range e.Points {
		if p.Time != p.TimeHi || p.Level != p.LevelHi {
			return true
		}
	}
	return false
}

// Equal compares two envelopes field by field
func (e *Envelope) Equal(o *Envelope) bool {
	if e.HasInit != o.HasInit || e.HasSustain != o.HasSustain || len(e.Points) != len(o.Points) {
		return false
	}
	if e.HasInit && (e.Init != o.Init || e.InitHi != o.InitHi) {
		return false
	}
	if e.HasSustain && e.Sustain != o.Sustain {
		return false
	}
	for i := range e.Points {
		if e.Points[i] != o.Points[i] {
			return false
		}
	}
	return true
}

// AppendTo encodes e. Points beyond MaxEnvelopePoints are dropped.
func (e *Envelope) AppendTo(dst []byte) []byte {
	points := e.Points
	if len(points) > MaxEnvelopePoints {
		points = points[:MaxEnvelopePoints]
	}
	velocity := e.VelocitySensitive()
	var flags byte
	if e.HasInit {
		flags |= EnvInit
	}
	if velocity {
		flags |= EnvVelocity
	}
	sustain := 0
	if e.HasSustain && e.Sustain >= 0 && e.Sustain < len(points) {
		flags |= EnvSustain
		sustain = e.Sustain
	}
	dst = append(dst, flags, byte(sustain<<4)|byte(len(points)))
	if e.HasInit {
		dst = binary.BigEndian.AppendUint16(dst, e.Init)
		if velocity {
			dst = binary.BigEndian.AppendUint16(dst, e.InitHi)
		}
	}
	// The velocity flag covers the whole envelope, so flat points still carry both halves.
	for _, p := range points {
		dst = binary.BigEndian.AppendUint16(dst, p.Time)
		dst = binary.BigEndian.AppendUint16(dst, p.Level)
		if velocity {
			dst = binary.BigEndian.AppendUint16(dst, p.TimeHi)
			dst = binary.BigEndian.AppendUint16(dst, p.LevelHi)
		}
	}
	return dst
}

// DecodeEnvelope reads one envelope from the front of src and returns the
// number of bytes consumed.
func DecodeEnvelope(src []byte) (Envelope, int, error) {
	var e Envelope
	if len(src) < 2 {
		return e, 0, framingErr("envelope", 0, "short envelope header")
	}
	flags := src[0]
	if flags&^(EnvInit|EnvVelocity|EnvSustain) != 0 {
		return e, 0, framingErr("envelope", 0, "unknown flags 0x%02x", flags)
	}
	velocity := flags&EnvVelocity != 0
	sustain := int(src[1] >> 4)
	count := int(src[1] & 0x0f)
	if flags&EnvSustain == 0 && sustain != 0 {
		return e, 0, framingErr("envelope", 1, "sustain index %d without sustain flag", sustain)
	}
	pos := 2

	need := count * 4
	if velocity {
		need *= 2
	}
	if flags&EnvInit != 0 {
		need += 2
		if velocity {
			need += 2
		}
	}
	if pos+need > len(src) {
		return e, 0, framingErr("envelope", pos, "need %d bytes, have %d", need, len(src)-pos)
	}

	if flags&EnvInit != 0 {
		e.HasInit = true
		e.Init = binary.BigEndian.Uint16(src[pos:])
		e.InitHi = e.Init
		pos += 2
		if velocity {
			e.InitHi = binary.BigEndian.Uint16(src[pos:])
			pos += 2
		}
	}
	if count > 0 {
		e.Points = make([]EnvelopePoint, count)
	}
	for i := range e.Points {
		p := &e.Points[i]
		p.Time = binary.BigEndian.Uint16(src[pos:])
		p.Level = binary.BigEndian.Uint16(src[pos+2:])
		pos += 4
		if velocity {
			p.TimeHi = binary.BigEndian.Uint16(src[pos:])
			p.LevelHi = binary.BigEndian.Uint16(src[pos+2:])
			pos += 4
		} else {
			p.TimeHi = p.Time
			p.LevelHi = p.Level
		}
	}
	if flags&EnvSustain != 0 {
		if sustain >= count {
			return e, 0, framingErr("envelope", 1, "sustain index %d with %d points", sustain, count)
		}
		e.HasSustain = true
		e.Sustain = sustain
	}
	return e, pos, nil
}

// Timing returns the pre-sustain and post-sustain durations in ms at the given
// velocity. When there is no sustain point the whole envelope is in attack.
func (e *Envelope) Timing(velocity uint8) (attack, release int, sustained bool) {
	for i, p := range e.Points {
		t := interpolate(int(p.Time), int(p.TimeHi), velocity)
		if e.HasSustain && i > e.Sustain {
			release += t
		} else {
			attack += t
		}
	}
	return attack, release, e.HasSustain
}

func interpolate(lo, hi int, velocity uint8) int {
	if velocity > 127 {
		velocity = 127
	}
	return lo + (hi-lo)*int(velocity)/127
}

// DefaultLevelEnvelope is what the synthesizer plays when a level envelope is empty
var DefaultLevelEnvelope = Envelope{
	HasInit: true,
	Points: []EnvelopePoint{
		{Time: 10, TimeHi: 5, Level: 0x6000, LevelHi: 0xffff},
		{Time: 25, TimeHi: 25, Level: 0x2000, LevelHi: 0x4000},
		{Time: 150, TimeHi: 250, Level: 0, LevelHi: 0},
	},
	HasSustain: true,
	Sustain:    1,
}
