package eau

import (
	"encoding/binary"
)

// tailWriter appends trailing-optional fields in order and remembers where the
// last non-default field ended, so the default tail can be cut off.
type tailWriter struct {
	buf  []byte
	keep int
}

func (w *tailWriter) u8(v, def uint8) {
	w.buf = append(w.buf, v)
	if v != def {
		w.keep = len(w.buf)
	}
}

func (w *tailWriter) u16(v, def uint16) {
	w.buf = binary.BigEndian.AppendUint16(w.buf, v)
	if v != def {
		w.keep = len(w.buf)
	}
}

func (w *tailWriter) env(e *Envelope) {
	w.buf = e.AppendTo(w.buf)
	if !e.IsDefault() {
		w.keep = len(w.buf)
	}
}

// raw appends bytes that always count as present
func (w *tailWriter) raw(b []byte) {
	w.buf = append(w.buf, b...)
	w.keep = len(w.buf)
}

func (w *tailWriter) bytes() []byte {
	return w.buf[:w.keep]
}

// tailReader reads trailing-optional fields. Each accessor reports false once the
// payload runs out; whatever is left after the last field is returned by rest.
type tailReader struct {
	src []byte
	pos int
}

func (r *tailReader) u8(v *uint8) bool {
	if r.pos+1 > len(r.src) {
		return false
	}
	*v = r.src[r.pos]
	r.pos++
	return true
}

func (r *tailReader) u16(v *uint16) bool {
	if r.pos+2 > len(r.src) {
		return false
	}
	*v = binary.BigEndian.Uint16(r.src[r.pos:])
	r.pos += 2
	return true
}

func (r *tailReader) env(e *Envelope) (bool, error) {
	if r.pos >= len(r.src) {
		return false, nil
	}
	env, n, err := DecodeEnvelope(r.src[r.pos:])
	if err != nil {
		if fe, ok := err.(*FramingError); ok {
			fe.Offset += r.pos
		}
		return false, err
	}
	*e = env
	r.pos += n
	return true, nil
}

func (r *tailReader) rest() []byte {
	if r.pos >= len(r.src) {
		return nil
	}
	return r.src[r.pos:]
}
