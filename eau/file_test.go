package eau

import (
	"bytes"
	"errors"
	"testing"
)

func testSong() *Song {
	fm := NewFMConfig()
	fm.Range = 0x0180
	fm.LevelEnv = Envelope{
		HasInit: true,
		Points: []EnvelopePoint{
			{Time: 20, TimeHi: 10, Level: 0xffff, LevelHi: 0xffff},
			{Time: 100, TimeHi: 100, Level: 0x4000, LevelHi: 0x8000},
			{Time: 300, TimeHi: 500, Level: 0, LevelHi: 0},
		},
		HasSustain: true,
		Sustain:    1,
	}
	lead := NewChannel(0)
	lead.Mode = ModeFM
	lead.Config = fm.Encode()
	lead.Post = AppendPost(nil, []PostStage{{ID: StageTremolo, Payload: []byte{0x01, 0x00, 0x40}}, {ID: 0x55, Payload: []byte{1, 2, 3}}})

	bass := NewChannel(1)
	bass.Trim = 0xc0
	bass.Pan = 0x60
	bass.Mode = ModeHarsh
	bass.Config = (&HarshConfig{Shape: ShapeSaw, WheelRange: DefaultWheelRange}).Encode()

	return &Song{
		Tempo:    400,
		Channels: []Channel{lead, bass},
		Events: []Event{
			{Type: EventNote, Chid: 0, Noteid: 60, Velocity: 100, Duration: 200},
			{Type: EventDelay, Delay: 100},
			{Type: EventLoop},
			{Type: EventNote, Chid: 1, Noteid: 36, Velocity: 64, Duration: 800},
			{Type: EventWheel, Chid: 0, Wheel: 0xa0},
			{Type: EventDelay, Delay: 4096},
			{Type: EventDelay, Delay: 896},
			{Type: EventDelay, Delay: 8},
		},
		Names: []Name{{Chid: 0, Noteid: 0, Text: "Lead"}, {Chid: 1, Noteid: 36, Text: "Low C"}},
	}
}

func TestSongRoundTrip(t *testing.T) {
	serial, err := testSong().Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	song, err := Decode(serial)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	again, err := song.Encode()
	if err != nil {
		t.Fatalf("re-encode: %v", err)
	}
	if !bytes.Equal(serial, again) {
		t.Errorf("round trip changed bytes:\n%x\n%x", serial, again)
	}
	if song.Tempo != 400 {
		t.Errorf("tempo = %d, want 400", song.Tempo)
	}
	if got := song.Name(1, 36); got != "Low C" {
		t.Errorf("name(1,36) = %q", got)
	}
	// the 100 ms delay splits into a coarse and a fine record ahead of the loop
	if song.Events[3].Type != EventLoop {
		t.Errorf("event 3 = %v, want loop", song.Events[3].Type)
	}
	if err := Validate(serial); err != nil {
		t.Errorf("validate: %v", err)
	}
}

func TestSplitRejects(t *testing.T) {
	good, err := testSong().Encode()
	if err != nil {
		t.Fatal(err)
	}
	corrupt := func(mutate func(b []byte) []byte) []byte {
		b := append([]byte(nil), good...)
		return mutate(b)
	}

	tests := []struct {
		name string
		src  []byte
	}{
		{"Short", good[:5]},
		{"BadMagic", corrupt(func(b []byte) []byte { b[1] = 'X'; return b })},
		{"ZeroTempo", corrupt(func(b []byte) []byte { b[4], b[5] = 0, 0; return b })},
		{"TempoTooLarge", corrupt(func(b []byte) []byte { b[4], b[5] = 0x80, 0x00; return b })},
		{"Truncated", good[:len(good)-1]},
		{"Trailing", append(append([]byte(nil), good...), 0)},
		{"RegionOverrun", corrupt(func(b []byte) []byte { b[8] = 0x7f; return b })},
		{"LoopBeyondEvents", corrupt(func(b []byte) []byte { b[6], b[7] = 0xff, 0xff; return b })},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Split(tc.src); !errors.Is(err, ErrMalformedFraming) {
				t.Errorf("Split err = %v, want ErrMalformedFraming", err)
			}
			if err := Validate(tc.src); !errors.Is(err, ErrMalformedFraming) {
				t.Errorf("Validate err = %v, want ErrMalformedFraming", err)
			}
		})
	}
}

func TestDuplicateChannelRejected(t *testing.T) {
	song := &Song{Tempo: 500, Channels: []Channel{NewChannel(3), NewChannel(3)}}
	if _, err := song.Encode(); !errors.Is(err, ErrMalformedFraming) {
		t.Errorf("encode err = %v", err)
	}

	var chdr []byte
	for i := 0; i < 2; i++ {
		c := NewChannel(3)
		chdr, _ = c.AppendTo(chdr)
	}
	serial := (&File{Tempo: 500, Chdr: chdr}).Bytes()
	if err := Validate(serial); !errors.Is(err, ErrMalformedFraming) {
		t.Errorf("validate err = %v", err)
	}
	if _, err := Decode(serial); !errors.Is(err, ErrMalformedFraming) {
		t.Errorf("decode err = %v", err)
	}
}

func TestLoopInsideRecord(t *testing.T) {
	events := AppendEvent(nil, Event{Type: EventNote, Chid: 0, Noteid: 60, Velocity: 1, Duration: 4})
	serial := (&File{Tempo: 500, Loop: 2, Events: events}).Bytes()
	if err := Validate(serial); !errors.Is(err, ErrMalformedFraming) {
		t.Errorf("validate err = %v", err)
	}
}

func TestStripNames(t *testing.T) {
	serial, _ := testSong().Encode()
	stripped, err := StripNames(serial)
	if err != nil {
		t.Fatal(err)
	}
	f, err := Split(stripped)
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Text) != 0 {
		t.Errorf("text region has %d bytes", len(f.Text))
	}
}
