package eau

import (
	"encoding/binary"
)

// Post stage ids
const (
	StageDelay      uint8 = 1
	StageWaveshaper uint8 = 2
	StageTremolo    uint8 = 3
)

var StageNames = map[uint8]string{
	StageDelay:      "delay",
	StageWaveshaper: "waveshaper",
	StageTremolo:    "tremolo",
}

// PostStage is one entry of a channel's post-effect chain
type PostStage struct {
	ID      uint8
	Payload []byte
}

// ParsePost splits a post chain into stages
func ParsePost(src []byte) ([]PostStage, error) {
	var stages []PostStage
	pos := 0
	for pos < len(src) {
		if pos+2 > len(src) {
			return nil, framingErr("post", pos, "short stage header")
		}
		n := int(src[pos+1])
		if pos+2+n > len(src) {
			return nil, framingErr("post", pos, "stage 0x%02x length %d overruns", src[pos], n)
		}
		stages = append(stages, PostStage{ID: src[pos], Payload: src[pos+2 : pos+2+n]})
		pos += 2 + n
	}
	return stages, nil
}

// AppendPost encodes stages. Payloads longer than 255 bytes are truncated.
func AppendPost(dst []byte, stages []PostStage) []byte {
	for _, s := range stages {
		payload := s.Payload
		if len(payload) > 0xff {
			payload = payload[:0xff]
		}
		dst = append(dst, s.ID, byte(len(payload)))
		dst = append(dst, payload...)
	}
	return dst
}

// Delay stage fields
const (
	DelayPeriod FieldSet = 1 << iota
	DelayDry
	DelayWet
	DelayStore
	DelayFeedback
)

// DelayStage is a feedback delay line
type DelayStage struct {
	Present  FieldSet
	Period   uint16 // ms
	Dry      uint8
	Wet      uint8
	Store    uint8
	Feedback uint8
}

func NewDelayStage() *DelayStage {
	return &DelayStage{Period: 250, Dry: 0x80, Wet: 0x80, Store: 0x80, Feedback: 0x80}
}

func (s *DelayStage) Encode() []byte {
	var w tailWriter
	w.u16(s.Period, 250)
	w.u8(s.Dry, 0x80)
	w.u8(s.Wet, 0x80)
	w.u8(s.Store, 0x80)
	w.u8(s.Feedback, 0x80)
	return w.bytes()
}

// DecodeDelayStage parses a delay payload, returning any leftover bytes
func DecodeDelayStage(src []byte) (*DelayStage, []byte) {
	s := NewDelayStage()
	r := tailReader{src: src}
	s.Present, _ = readFields([]func() (bool, error){
		func() (bool, error) { return r.u16(&s.Period), nil },
		func() (bool, error) { return r.u8(&s.Dry), nil },
		func() (bool, error) { return r.u8(&s.Wet), nil },
		func() (bool, error) { return r.u8(&s.Store), nil },
		func() (bool, error) { return r.u8(&s.Feedback), nil },
	})
	return s, r.rest()
}

// WaveshaperStage maps the signal through a piecewise-linear curve
type WaveshaperStage struct {
	Levels []uint16
}

func (s *WaveshaperStage) Encode() []byte {
	var dst []byte
	for _, l := range s.Levels {
		dst = binary.BigEndian.AppendUint16(dst, l)
	}
	return dst
}

func DecodeWaveshaperStage(src []byte) (*WaveshaperStage, []byte) {
	s := &WaveshaperStage{}
	for i := 0; i+2 <= len(src); i += 2 {
		s.Levels = append(s.Levels, binary.BigEndian.Uint16(src[i:]))
	}
	if len(src)%2 == 1 {
		return s, src[len(src)-1:]
	}
	return s, nil
}

// Tremolo stage fields
const (
	TremoloPeriod FieldSet = 1 << iota
	TremoloDepth
	TremoloPhase
)

// TremoloStage is a level LFO
type TremoloStage struct {
	Present FieldSet
	Period  uint16 // ms
	Depth   uint8
	Phase   uint8
}

func NewTremoloStage() *TremoloStage {
	return &TremoloStage{Period: 500, Depth: 0x80}
}

func (s *TremoloStage) Encode() []byte {
	var w tailWriter
	w.u16(s.Period, 500)
	w.u8(s.Depth, 0x80)
	w.u8(s.Phase, 0)
	return w.bytes()
}

func DecodeTremoloStage(src []byte) (*TremoloStage, []byte) {
	s := NewTremoloStage()
	r := tailReader{src: src}
	s.Present, _ = readFields([]func() (bool, error){
		func() (bool, error) { return r.u16(&s.Period), nil },
		func() (bool, error) { return r.u8(&s.Depth), nil },
		func() (bool, error) { return r.u8(&s.Phase), nil },
	})
	return s, r.rest()
}
