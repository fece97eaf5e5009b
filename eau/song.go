package eau

// Song is a fully decoded EAU serial
type Song struct {
	Tempo    int
	Channels []Channel
	Events   []Event
	Names    []Name
}

// Decode parses every region of src. Payload slices alias src.
func Decode(src []byte) (*Song, error) {
	f, err := Split(src)
	if err != nil {
		return nil, err
	}
	s := &Song{Tempo: f.Tempo}
	if s.Channels, err = ReadChannels(f.Chdr); err != nil {
		return nil, err
	}
	if s.Events, err = ReadEvents(f.Events, f.Loop); err != nil {
		return nil, err
	}
	if s.Names, err = ParseNames(f.Text); err != nil {
		return nil, err
	}
	return s, nil
}

// Encode serializes the song. Channels are written in slice order.
func (s *Song) Encode() ([]byte, error) {
	var seen [256]bool
	f := &File{Tempo: s.Tempo}
	for _, c := range s.Channels {
		if seen[c.Chid] {
			return nil, framingErr("chdr", len(f.Chdr), "duplicate channel %d", c.Chid)
		}
		seen[c.Chid] = true
		var err error
		if f.Chdr, err = c.AppendTo(f.Chdr); err != nil {
			return nil, err
		}
	}
	f.Events, f.Loop = EncodeEvents(s.Events)
	if f.Loop > 0xffff {
		return nil, framingErr("events", f.Loop, "loop offset does not fit in 16 bits")
	}
	f.Text = AppendNames(nil, s.Names)
	return f.Bytes(), nil
}

// Channel returns the header for chid
func (s *Song) Channel(chid uint8) (*Channel, bool) {
	return FindChannel(s.Channels, chid)
}

// Name returns the display name for (chid, noteid)
func (s *Song) Name(chid, noteid uint8) string {
	name, _ := LookupName(s.Names, chid, noteid)
	return name
}

// StripNames returns src with an empty text region
func StripNames(src []byte) ([]byte, error) {
	f, err := Split(src)
	if err != nil {
		return nil, err
	}
	f.Text = nil
	return f.Bytes(), nil
}
