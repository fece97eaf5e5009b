package eau

import (
	"encoding/binary"
)

// Magic is the 4-byte signature at the start of every EAU serial
const Magic = "\x00EAU"

const (
	DefaultTempo = 500
	MaxTempo     = 32767

	// MaxDepth bounds drum-voice nesting (a voice's serial is itself an EAU file)
	MaxDepth = 4

	headerSize = 8
)

// File is a framed view of an EAU serial: the tempo/loop header plus the three
// payload regions. Region slices alias the source buffer.
type File struct {
	Tempo  int
	Loop   int // byte offset into Events, 0 = start
	Chdr   []byte
	Events []byte
	Text   []byte
}

// Split validates the header and region lengths and returns the framed view.
// It does not look inside any region.
func Split(src []byte) (*File, error) {
	if len(src) < headerSize {
		return nil, framingErr("header", 0, "short file (%d bytes)", len(src))
	}
	if string(src[:4]) != Magic {
		return nil, framingErr("header", 0, "bad signature %q", src[:4])
	}
	f := &File{
		Tempo: int(binary.BigEndian.Uint16(src[4:])),
		Loop:  int(binary.BigEndian.Uint16(src[6:])),
	}
	if f.Tempo < 1 || f.Tempo > MaxTempo {
		return nil, framingErr("header", 4, "tempo %d out of range", f.Tempo)
	}

	pos := headerSize
	regions := []struct {
		name string
		dst  *[]byte
	}{
		{"chdr", &f.Chdr},
		{"events", &f.Events},
		{"text", &f.Text},
	}
	for _, r := range regions {
		if pos+4 > len(src) {
			return nil, framingErr(r.name, pos, "missing region length")
		}
		n := int(binary.BigEndian.Uint32(src[pos:]))
		pos += 4
		if n < 0 || n > len(src)-pos {
			return nil, framingErr(r.name, pos, "region length %d overruns %d remaining", n, len(src)-pos)
		}
		*r.dst = src[pos : pos+n]
		pos += n
	}
	if pos != len(src) {
		return nil, framingErr("text", pos, "%d trailing bytes", len(src)-pos)
	}
	if f.Loop > len(f.Events) {
		return nil, framingErr("header", 6, "loop offset %d beyond events (%d)", f.Loop, len(f.Events))
	}
	return f, nil
}

// Bytes frames the regions back into a serial. Tempo is clamped into range.
func (f *File) Bytes() []byte {
	tempo := f.Tempo
	if tempo < 1 {
		tempo = DefaultTempo
	} else if tempo > MaxTempo {
		tempo = MaxTempo
	}
	dst := make([]byte, 0, headerSize+12+len(f.Chdr)+len(f.Events)+len(f.Text))
	dst = append(dst, Magic...)
	dst = binary.BigEndian.AppendUint16(dst, uint16(tempo))
	dst = binary.BigEndian.AppendUint16(dst, uint16(f.Loop))
	for _, region := range [][]byte{f.Chdr, f.Events, f.Text} {
		dst = binary.BigEndian.AppendUint32(dst, uint32(len(region)))
		dst = append(dst, region...)
	}
	return dst
}

// IsEAU reports whether src starts with the EAU signature
func IsEAU(src []byte) bool {
	return len(src) >= 4 && string(src[:4]) == Magic
}
