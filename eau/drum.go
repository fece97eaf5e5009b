package eau

import (
	"encoding/binary"
)

// Voice defaults used when text form omits them
const (
	DefaultVoiceTrimLo = 0x80
	DefaultVoiceTrimHi = 0xff
)

// DrumVoice plays a nested EAU serial when its noteid is struck.
// Trim is interpolated between TrimLo and TrimHi by velocity.
type DrumVoice struct {
	Noteid uint8
	TrimLo uint8
	TrimHi uint8
	Pan    uint8
	Serial []byte
}

// DrumConfig lists the voices of a drum kit. Voices keep their serial as raw
// bytes; nested songs are only decoded on demand, with an explicit depth.
type DrumConfig struct {
	Voices []DrumVoice
}

const drumVoiceHeader = 6

func (c *DrumConfig) Mode() Mode { return ModeDrum }

func (c *DrumConfig) Encode() []byte {
	var dst []byte
	for _, v := range c.Voices {
		serial := v.Serial
		if len(serial) > 0xffff {
			serial = serial[:0]
		}
		dst = append(dst, v.Noteid, v.TrimLo, v.TrimHi, v.Pan)
		dst = binary.BigEndian.AppendUint16(dst, uint16(len(serial)))
		dst = append(dst, serial...)
	}
	return dst
}

// Voice returns the voice for noteid, if the kit has one
func (c *DrumConfig) Voice(noteid uint8) (*DrumVoice, bool) {
	for i := range c.Voices {
		if c.Voices[i].Noteid == noteid {
			return &c.Voices[i], true
		}
	}
	return nil, false
}

// Filter keeps only the voices whose noteid is set in used
func (c *DrumConfig) Filter(used *[128]bool) *DrumConfig {
	out := &DrumConfig{}
	for _, v := range c.Voices {
		if v.Noteid < 128 && used[v.Noteid] {
			out.Voices = append(out.Voices, v)
		}
	}
	return out
}

// DecodeDrum parses a drum modecfg. A truncated final voice is leftover.
func DecodeDrum(src []byte) (*DrumConfig, []byte, error) {
	c := &DrumConfig{}
	pos := 0
	for pos+drumVoiceHeader <= len(src) {
		n := int(binary.BigEndian.Uint16(src[pos+4:]))
		if pos+drumVoiceHeader+n > len(src) {
			break
		}
		c.Voices = append(c.Voices, DrumVoice{
			Noteid: src[pos],
			TrimLo: src[pos+1],
			TrimHi: src[pos+2],
			Pan:    src[pos+3],
			Serial: src[pos+drumVoiceHeader : pos+drumVoiceHeader+n],
		})
		pos += drumVoiceHeader + n
	}
	if pos < len(src) {
		return c, src[pos:], nil
	}
	return c, nil, nil
}
