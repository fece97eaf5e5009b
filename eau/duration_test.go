package eau

import (
	"testing"
)

func exampleSerial(t *testing.T) []byte {
	t.Helper()
	fm := NewChannel(0)
	fm.Mode = ModeFM
	song := &Song{
		Tempo:    500,
		Channels: []Channel{fm},
		Events: []Event{
			{Type: EventNote, Chid: 0, Noteid: 64, Velocity: 64, Duration: 200},
			{Type: EventDelay, Delay: 100},
		},
	}
	serial, err := song.Encode()
	if err != nil {
		t.Fatal(err)
	}
	return serial
}

func TestEstimateDurationExample(t *testing.T) {
	serial := exampleSerial(t)
	tests := []struct {
		method DurationMethod
		want   int
	}{
		{MethodDelay, 100},
		{MethodRelease, 200},
		{MethodRoundUp, 500},
		// default level envelope at velocity 64: 33 ms attack, 200 ms release
		{MethodVoiceTail, 400},
	}
	for _, tc := range tests {
		t.Run(tc.method.String(), func(t *testing.T) {
			got, err := EstimateDuration(serial, tc.method)
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Errorf("got %d, want %d", got, tc.want)
			}
		})
	}
}

func TestRoundUpProperties(t *testing.T) {
	for _, serial := range [][]byte{exampleSerial(t), mustEncode(t, testSong())} {
		f, err := Split(serial)
		if err != nil {
			t.Fatal(err)
		}
		release, err := EstimateDuration(serial, MethodRelease)
		if err != nil {
			t.Fatal(err)
		}
		round, err := EstimateDuration(serial, MethodRoundUp)
		if err != nil {
			t.Fatal(err)
		}
		if round < release {
			t.Errorf("roundup %d < release %d", round, release)
		}
		if round%f.Tempo != 0 {
			t.Errorf("roundup %d not a multiple of tempo %d", round, f.Tempo)
		}
	}
}

func TestVoiceTailDrum(t *testing.T) {
	voice := NewChannel(0)
	voice.Mode = ModeHarsh
	harsh := NewHarshConfig()
	harsh.LevelEnv = Envelope{Points: []EnvelopePoint{
		{Time: 100, TimeHi: 100, Level: 0xffff, LevelHi: 0xffff},
		{Time: 200, TimeHi: 200},
	}}
	voice.Config = harsh.Encode()
	sub := mustEncode(t, &Song{
		Tempo:    500,
		Channels: []Channel{voice},
		Events:   []Event{{Type: EventNote, Chid: 0, Noteid: 60, Velocity: 100, Duration: 10}},
	})

	kit := NewChannel(9)
	kit.Mode = ModeDrum
	kit.Config = (&DrumConfig{Voices: []DrumVoice{{Noteid: 36, TrimLo: 0x80, TrimHi: 0xff, Pan: 0x80, Serial: sub}}}).Encode()

	serial := mustEncode(t, &Song{
		Tempo:    500,
		Channels: []Channel{kit},
		Events: []Event{
			{Type: EventDelay, Delay: 50},
			{Type: EventNote, Chid: 9, Noteid: 36, Velocity: 1, Duration: 0},
			{Type: EventNote, Chid: 9, Noteid: 38, Velocity: 1, Duration: 992},
		},
	})
	got, err := EstimateDuration(serial, MethodVoiceTail)
	if err != nil {
		t.Fatal(err)
	}
	if got != 350 {
		t.Errorf("voicetail = %d, want 350", got)
	}
	release, _ := EstimateDuration(serial, MethodRelease)
	if release != 1042 {
		t.Errorf("release = %d, want 1042", release)
	}
}

func TestVoiceTailNoopIsSilent(t *testing.T) {
	serial := mustEncode(t, &Song{
		Tempo:    500,
		Channels: []Channel{NewChannel(2)},
		Events: []Event{
			{Type: EventNote, Chid: 2, Noteid: 60, Velocity: 100, Duration: 1000},
			{Type: EventDelay, Delay: 20},
		},
	})
	got, err := EstimateDuration(serial, MethodVoiceTail)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0 {
		t.Errorf("voicetail = %d, want 0", got)
	}
}

func mustEncode(t *testing.T, s *Song) []byte {
	t.Helper()
	serial, err := s.Encode()
	if err != nil {
		t.Fatal(err)
	}
	return serial
}
