package eau

import (
	"errors"
	"testing"
)

func nestedKit(t *testing.T, depth int) []byte {
	t.Helper()
	song := &Song{Tempo: 500}
	if depth > 0 {
		kit := NewChannel(0)
		kit.Mode = ModeDrum
		kit.Config = (&DrumConfig{Voices: []DrumVoice{{Noteid: 1, Serial: nestedKit(t, depth-1)}}}).Encode()
		song.Channels = []Channel{kit}
	}
	return mustEncode(t, song)
}

func TestValidateNestingDepth(t *testing.T) {
	if err := Validate(nestedKit(t, MaxDepth)); err != nil {
		t.Errorf("depth %d: %v", MaxDepth, err)
	}
	if err := Validate(nestedKit(t, MaxDepth+1)); !errors.Is(err, ErrMalformedFraming) {
		t.Errorf("depth %d: err = %v", MaxDepth+1, err)
	}
	if _, err := EstimateDuration(nestedKit(t, MaxDepth+1), MethodVoiceTail); !errors.Is(err, ErrMalformedFraming) {
		t.Errorf("voicetail err = %v", err)
	}
}

func TestValidateBadNestedSerial(t *testing.T) {
	kit := NewChannel(0)
	kit.Mode = ModeDrum
	kit.Config = (&DrumConfig{Voices: []DrumVoice{{Noteid: 1, Serial: []byte("junk")}}}).Encode()
	serial := mustEncode(t, &Song{Tempo: 500, Channels: []Channel{kit}})
	if err := Validate(serial); !errors.Is(err, ErrMalformedFraming) {
		t.Errorf("err = %v", err)
	}
}

func TestValidateBadPost(t *testing.T) {
	c := NewChannel(0)
	c.Post = []byte{StageDelay, 10, 0}
	serial := mustEncode(t, &Song{Tempo: 500, Channels: []Channel{c}})
	if err := Validate(serial); !errors.Is(err, ErrMalformedFraming) {
		t.Errorf("err = %v", err)
	}
}
