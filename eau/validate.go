package eau

import (
	"io"
)

// Validate runs every structural check Decode would, without building a Song.
// Drum voice serials are checked recursively, up to MaxDepth levels.
func Validate(src []byte) error {
	return validate(src, 0)
}

func validate(src []byte, depth int) error {
	if depth > MaxDepth {
		return framingErr("chdr", 0, "drum voices nested deeper than %d", MaxDepth)
	}
	f, err := Split(src)
	if err != nil {
		return err
	}

	var seen [256]bool
	cr := NewChannelReader(f.Chdr)
	for {
		pos := cr.pos
		c, err := cr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if seen[c.Chid] {
			return framingErr("chdr", pos, "duplicate channel %d", c.Chid)
		}
		seen[c.Chid] = true
		if _, err := ParsePost(c.Post); err != nil {
			return err
		}
		if err := validateConfig(&c, depth); err != nil {
			return err
		}
	}

	er := NewEventReader(f.Events, f.Loop)
	for {
		_, err := er.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
	}

	_, err = ParseNames(f.Text)
	return err
}

func validateConfig(c *Channel, depth int) error {
	cfg, _, err := c.DecodeConfig()
	if err != nil {
		return err
	}
	drum, ok := cfg.(*DrumConfig)
	if !ok {
		return nil
	}
	for _, v := range drum.Voices {
		if len(v.Serial) == 0 {
			continue
		}
		if err := validate(v.Serial, depth+1); err != nil {
			return err
		}
	}
	return nil
}
