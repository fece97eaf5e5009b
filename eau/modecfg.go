package eau

import (
	"encoding/binary"
	"fmt"
)

// Mode selects the synthesis algorithm for a channel
type Mode uint8

const (
	ModeNoop Mode = iota
	ModeDrum
	ModeFM
	ModeHarsh
	ModeHarmonic
)

var modeNames = map[Mode]string{
	ModeNoop:     "noop",
	ModeDrum:     "drum",
	ModeFM:       "fm",
	ModeHarsh:    "harsh",
	ModeHarmonic: "harmonic",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("0x%02x", uint8(m))
}

// ParseMode resolves a mode keyword
func ParseMode(name string) (Mode, bool) {
	for m, n := range modeNames {
		if n == name {
			return m, true
		}
	}
	return 0, false
}

// FieldSet records which trailing-optional fields were present on the wire or
// assigned explicitly. Bit i is field i in wire order.
type FieldSet uint16

func (f FieldSet) Has(field FieldSet) bool { return f&field != 0 }

// ModeConfig is a decoded modecfg payload
type ModeConfig interface {
	Mode() Mode
	Encode() []byte
}

// DecodeConfig parses a modecfg payload for the given mode. Bytes the decoder
// does not understand are returned as leftover rather than failing, so newer
// payloads still load.
func DecodeConfig(mode Mode, src []byte) (cfg ModeConfig, leftover []byte, err error) {
	switch mode {
	case ModeDrum:
		return DecodeDrum(src)
	case ModeFM:
		return DecodeFM(src)
	case ModeHarsh:
		return DecodeHarsh(src)
	case ModeHarmonic:
		return DecodeHarmonic(src)
	}
	return &RawConfig{ModeID: mode, Data: src}, nil, nil
}

// RawConfig carries the payload of noop and unknown modes verbatim
type RawConfig struct {
	ModeID Mode
	Data   []byte
}

func (c *RawConfig) Mode() Mode     { return c.ModeID }
func (c *RawConfig) Encode() []byte { return c.Data }

// FM fields, in wire order
const (
	FMRate FieldSet = 1 << iota
	FMRange
	FMLevelEnv
	FMRangeEnv
	FMPitchEnv
	FMWheel
	FMLFORate
	FMLFODepth
	FMLFOPhase
)

// RateAbsolute marks an FM rate as absolute Hz rather than a ratio
const RateAbsolute = 0x8000

const (
	DefaultFMRate     = 0x0100
	DefaultWheelRange = 200
	DefaultLFODepth   = 0xff
)

// FMConfig is a two-operator FM voice
type FMConfig struct {
	Present    FieldSet
	Rate       uint16 // u8.8 ratio, or Hz with RateAbsolute set
	Range      uint16 // u8.8 modulation range
	LevelEnv   Envelope
	RangeEnv   Envelope
	PitchEnv   Envelope
	WheelRange uint16 // cents
	LFORate    uint16 // u8.8 qnotes
	LFODepth   uint8
	LFOPhase   uint8
}

// NewFMConfig returns an FM config with every field at its default
func NewFMConfig() *FMConfig {
	return &FMConfig{Rate: DefaultFMRate, WheelRange: DefaultWheelRange, LFODepth: DefaultLFODepth}
}

func (c *FMConfig) Mode() Mode { return ModeFM }

func (c *FMConfig) Encode() []byte {
	var w tailWriter
	w.u16(c.Rate, DefaultFMRate)
	w.u16(c.Range, 0)
	w.env(&c.LevelEnv)
	w.env(&c.RangeEnv)
	w.env(&c.PitchEnv)
	w.u16(c.WheelRange, DefaultWheelRange)
	w.u16(c.LFORate, 0)
	w.u8(c.LFODepth, DefaultLFODepth)
	w.u8(c.LFOPhase, 0)
	return w.bytes()
}

// DecodeFM parses an FM modecfg
func DecodeFM(src []byte) (*FMConfig, []byte, error) {
	c := NewFMConfig()
	r := tailReader{src: src}
	steps := []func() (bool, error){
		func() (bool, error) { return r.u16(&c.Rate), nil },
		func() (bool, error) { return r.u16(&c.Range), nil },
		func() (bool, error) { return r.env(&c.LevelEnv) },
		func() (bool, error) { return r.env(&c.RangeEnv) },
		func() (bool, error) { return r.env(&c.PitchEnv) },
		func() (bool, error) { return r.u16(&c.WheelRange), nil },
		func() (bool, error) { return r.u16(&c.LFORate), nil },
		func() (bool, error) { return r.u8(&c.LFODepth), nil },
		func() (bool, error) { return r.u8(&c.LFOPhase), nil },
	}
	present, err := readFields(steps)
	if err != nil {
		return nil, nil, err
	}
	c.Present = present
	return c, r.rest(), nil
}

// readFields runs field readers in order until one runs out of payload
func readFields(steps []func() (bool, error)) (FieldSet, error) {
	var present FieldSet
	for i, step := range steps {
		ok, err := step()
		if err != nil {
			return present, err
		}
		if !ok {
			break
		}
		present |= 1 << i
	}
	return present, nil
}

// Harsh fields, in wire order
const (
	HarshShape FieldSet = 1 << iota
	HarshLevelEnv
	HarshPitchEnv
	HarshWheel
)

// Harsh oscillator shapes
const (
	ShapeSine uint8 = iota
	ShapeSquare
	ShapeSaw
	ShapeTriangle
)

var ShapeNames = []string{"sine", "square", "saw", "triangle"}

// HarshConfig is a single naive oscillator
type HarshConfig struct {
	Present    FieldSet
	Shape      uint8
	LevelEnv   Envelope
	PitchEnv   Envelope
	WheelRange uint16
}

func NewHarshConfig() *HarshConfig {
	return &HarshConfig{WheelRange: DefaultWheelRange}
}

func (c *HarshConfig) Mode() Mode { return ModeHarsh }

func (c *HarshConfig) Encode() []byte {
	var w tailWriter
	w.u8(c.Shape, ShapeSine)
	w.env(&c.LevelEnv)
	w.env(&c.PitchEnv)
	w.u16(c.WheelRange, DefaultWheelRange)
	return w.bytes()
}

// DecodeHarsh parses a harsh modecfg
func DecodeHarsh(src []byte) (*HarshConfig, []byte, error) {
	c := NewHarshConfig()
	r := tailReader{src: src}
	present, err := readFields([]func() (bool, error){
		func() (bool, error) { return r.u8(&c.Shape), nil },
		func() (bool, error) { return r.env(&c.LevelEnv) },
		func() (bool, error) { return r.env(&c.PitchEnv) },
		func() (bool, error) { return r.u16(&c.WheelRange), nil },
	})
	if err != nil {
		return nil, nil, err
	}
	c.Present = present
	return c, r.rest(), nil
}

// Harmonic fields, in wire order
const (
	HarmonicCoefficients FieldSet = 1 << iota
	HarmonicLevelEnv
	HarmonicPitchEnv
	HarmonicWheel
)

// HarmonicConfig is an additive voice: one amplitude per harmonic
type HarmonicConfig struct {
	Present    FieldSet
	Harmonics  []uint16
	LevelEnv   Envelope
	PitchEnv   Envelope
	WheelRange uint16
}

func NewHarmonicConfig() *HarmonicConfig {
	return &HarmonicConfig{Harmonics: []uint16{0xffff}, WheelRange: DefaultWheelRange}
}

func (c *HarmonicConfig) Mode() Mode { return ModeHarmonic }

func (c *HarmonicConfig) defaultHarmonics() bool {
	return len(c.Harmonics) == 1 && c.Harmonics[0] == 0xffff
}

func (c *HarmonicConfig) Encode() []byte {
	var w tailWriter
	harmonics := c.Harmonics
	if len(harmonics) > 0xff {
		harmonics = harmonics[:0xff]
	}
	coefs := []byte{byte(len(harmonics))}
	for _, h := range harmonics {
		coefs = binary.BigEndian.AppendUint16(coefs, h)
	}
	if c.defaultHarmonics() {
		w.buf = append(w.buf, coefs...)
	} else {
		w.raw(coefs)
	}
	w.env(&c.LevelEnv)
	w.env(&c.PitchEnv)
	w.u16(c.WheelRange, DefaultWheelRange)
	return w.bytes()
}

// DecodeHarmonic parses a harmonic modecfg
func DecodeHarmonic(src []byte) (*HarmonicConfig, []byte, error) {
	c := NewHarmonicConfig()
	r := tailReader{src: src}
	present, err := readFields([]func() (bool, error){
		func() (bool, error) {
			var count uint8
			if r.pos >= len(r.src) || r.pos+1+int(r.src[r.pos])*2 > len(r.src) {
				return false, nil
			}
			r.u8(&count)
			c.Harmonics = make([]uint16, count)
			for i := range c.Harmonics {
				r.u16(&c.Harmonics[i])
			}
			return true, nil
		},
		func() (bool, error) { return r.env(&c.LevelEnv) },
		func() (bool, error) { return r.env(&c.PitchEnv) },
		func() (bool, error) { return r.u16(&c.WheelRange), nil },
	})
	if err != nil {
		return nil, nil, err
	}
	c.Present = present
	return c, r.rest(), nil
}

// LevelEnvelope returns the level envelope of a tonal config, or nil
func LevelEnvelope(cfg ModeConfig) *Envelope {
	switch c := cfg.(type) {
	case *FMConfig:
		return &c.LevelEnv
	case *HarshConfig:
		return &c.LevelEnv
	case *HarmonicConfig:
		return &c.LevelEnv
	}
	return nil
}
