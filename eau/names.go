package eau

// ChannelNameSentinel is accepted in text form as the noteid that names a channel
const ChannelNameSentinel = 0xff

// Name labels a channel (Noteid 0) or one note of a channel
type Name struct {
	Chid   uint8
	Noteid uint8
	Text   string
}

// ParseNames decodes a text region
func ParseNames(src []byte) ([]Name, error) {
	var out []Name
	pos := 0
	for pos < len(src) {
		if pos+3 > len(src) {
			return nil, framingErr("text", pos, "short name header")
		}
		n := int(src[pos+2])
		if pos+3+n > len(src) {
			return nil, framingErr("text", pos, "name length %d overruns", n)
		}
		out = append(out, Name{Chid: src[pos], Noteid: src[pos+1], Text: string(src[pos+3 : pos+3+n])})
		pos += 3 + n
	}
	return out, nil
}

// AppendNames encodes names. Text longer than 255 bytes is truncated.
func AppendNames(dst []byte, names []Name) []byte {
	for _, n := range names {
		text := n.Text
		if len(text) > 0xff {
			text = text[:0xff]
		}
		dst = append(dst, n.Chid, n.Noteid, byte(len(text)))
		dst = append(dst, text...)
	}
	return dst
}

// LookupName returns the first name for (chid, noteid)
func LookupName(names []Name, chid, noteid uint8) (string, bool) {
	for _, n := range names {
		if n.Chid == chid && n.Noteid == noteid {
			return n.Text, true
		}
	}
	return "", false
}
