package eau

import (
	"encoding/binary"
	"io"
)

const (
	DefaultTrim = 0x40
	DefaultPan  = 0x80

	chdrFixed = 6
)

// Channel is one channel header entry. Config and Post hold the raw payloads;
// use DecodeConfig and ParsePost for the structured views.
type Channel struct {
	Chid   uint8
	Trim   uint8
	Pan    uint8
	Mode   Mode
	Config []byte
	Post   []byte
}

// NewChannel returns a header with default trim and pan in noop mode
func NewChannel(chid uint8) Channel {
	return Channel{Chid: chid, Trim: DefaultTrim, Pan: DefaultPan}
}

// DecodeConfig parses the channel's modecfg
func (c *Channel) DecodeConfig() (ModeConfig, []byte, error) {
	return DecodeConfig(c.Mode, c.Config)
}

// AppendTo encodes the entry. Oversized payloads are a framing error.
func (c *Channel) AppendTo(dst []byte) ([]byte, error) {
	if len(c.Config) > 0xffff {
		return dst, framingErr("chdr", 0, "channel %d modecfg too long (%d)", c.Chid, len(c.Config))
	}
	if len(c.Post) > 0xffff {
		return dst, framingErr("chdr", 0, "channel %d post too long (%d)", c.Chid, len(c.Post))
	}
	dst = append(dst, c.Chid, c.Trim, c.Pan, byte(c.Mode))
	dst = binary.BigEndian.AppendUint16(dst, uint16(len(c.Config)))
	dst = append(dst, c.Config...)
	dst = binary.BigEndian.AppendUint16(dst, uint16(len(c.Post)))
	dst = append(dst, c.Post...)
	return dst, nil
}

// ChannelReader streams entries out of a chdr region
type ChannelReader struct {
	src []byte
	pos int
}

func NewChannelReader(chdr []byte) *ChannelReader {
	return &ChannelReader{src: chdr}
}

// Next returns the next entry, or io.EOF at the end of the region.
// Returned payloads alias the region.
func (r *ChannelReader) Next() (Channel, error) {
	var c Channel
	if r.pos >= len(r.src) {
		return c, io.EOF
	}
	src := r.src[r.pos:]
	if len(src) < chdrFixed {
		return c, framingErr("chdr", r.pos, "short channel header")
	}
	c.Chid, c.Trim, c.Pan, c.Mode = src[0], src[1], src[2], Mode(src[3])
	p := 4
	n := int(binary.BigEndian.Uint16(src[p:]))
	p += 2
	if p+n+2 > len(src) {
		return c, framingErr("chdr", r.pos+p, "channel %d modecfg length %d overruns", c.Chid, n)
	}
	c.Config = src[p : p+n]
	p += n
	n = int(binary.BigEndian.Uint16(src[p:]))
	p += 2
	if p+n > len(src) {
		return c, framingErr("chdr", r.pos+p, "channel %d post length %d overruns", c.Chid, n)
	}
	c.Post = src[p : p+n]
	p += n
	r.pos += p
	return c, nil
}

// ReadChannels decodes a whole chdr region, rejecting duplicate chids
func ReadChannels(chdr []byte) ([]Channel, error) {
	var seen [256]bool
	var out []Channel
	r := NewChannelReader(chdr)
	for {
		pos := r.pos
		c, err := r.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		if seen[c.Chid] {
			return nil, framingErr("chdr", pos, "duplicate channel %d", c.Chid)
		}
		seen[c.Chid] = true
		out = append(out, c)
	}
}

// FindChannel returns the header for chid from a list, if present
func FindChannel(channels []Channel, chid uint8) (*Channel, bool) {
	for i := range channels {
		if channels[i].Chid == chid {
			return &channels[i], true
		}
	}
	return nil, false
}
