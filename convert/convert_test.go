package convert

import (
	"bytes"
	"errors"
	"testing"

	"eau-tools/eau"
)

const exampleText = `tempo 500; chdr { chid 0; name "Lead"; mode fm; } events { note 0 64 64 200; delay 100; }`

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		file string
		src  []byte
		want Format
	}{
		{"eau signature", "song.bin", []byte("\x00EAU\x01\xf4\x00\x00"), FormatEAU},
		{"midi signature", "", []byte("MThd\x00\x00\x00\x06"), FormatMIDI},
		{"signature beats extension", "song.eaut", []byte("MThd"), FormatMIDI},
		{"text extension", "song.eaut", []byte("tempo 500;"), FormatText},
		{"midi extension", "SONG.MID", nil, FormatMIDI},
		{"unknown", "song.wav", []byte("RIFF"), FormatAuto},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Detect(tc.file, tc.src); got != tc.want {
				t.Errorf("Detect = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestDefaultTarget(t *testing.T) {
	if DefaultTarget(FormatEAU) != FormatMIDI {
		t.Error("eau should default to midi")
	}
	if DefaultTarget(FormatText) != FormatEAU || DefaultTarget(FormatMIDI) != FormatEAU {
		t.Error("text and midi should default to eau")
	}
}

func TestParseFormat(t *testing.T) {
	for name, want := range map[string]Format{"": FormatAuto, "EAU": FormatEAU, "eaut": FormatText, "mid": FormatMIDI} {
		got, ok := ParseFormat(name)
		if !ok || got != want {
			t.Errorf("ParseFormat(%q) = %s, %v", name, got, ok)
		}
	}
	if _, ok := ParseFormat("wav"); ok {
		t.Error("wav accepted")
	}
}

func TestConvertChain(t *testing.T) {
	res, err := Convert(FormatAuto, []byte(exampleText), FormatAuto, Options{Name: "example.eaut"})
	if err != nil {
		t.Fatalf("text to eau: %v", err)
	}
	if res.From != FormatText || res.To != FormatEAU {
		t.Errorf("formats = %s -> %s", res.From, res.To)
	}
	serial := res.Data

	midiRes, err := Convert(FormatAuto, serial, FormatAuto, Options{})
	if err != nil {
		t.Fatalf("eau to midi: %v", err)
	}
	if midiRes.To != FormatMIDI || !bytes.HasPrefix(midiRes.Data, []byte("MThd")) {
		t.Fatalf("expected a MIDI file, got %s", midiRes.To)
	}

	back, err := Convert(FormatEAU, midiRes.Data, FormatAuto, Options{})
	if err != nil {
		t.Fatalf("midi to eau: %v", err)
	}
	f1, _ := eau.Split(serial)
	f2, _ := eau.Split(back.Data)
	if !bytes.Equal(f1.Chdr, f2.Chdr) || !bytes.Equal(f1.Text, f2.Text) {
		t.Error("channel headers or names lost through midi")
	}

	text, err := Convert(FormatText, back.Data, FormatEAU, Options{})
	if err != nil {
		t.Fatalf("eau to text: %v", err)
	}
	if !bytes.Contains(text.Data, []byte(`name "Lead";`)) {
		t.Errorf("decompiled text lacks the channel name:\n%s", text.Data)
	}
}

func TestConvertStripNames(t *testing.T) {
	res, err := Convert(FormatEAU, []byte(exampleText), FormatText, Options{StripNames: true})
	if err != nil {
		t.Fatal(err)
	}
	f, _ := eau.Split(res.Data)
	if len(f.Text) != 0 {
		t.Errorf("text region = %q, want empty", f.Text)
	}
}

func TestConvertErrors(t *testing.T) {
	tests := []struct {
		name   string
		src    []byte
		format Format
		want   error
	}{
		{"undetectable", []byte("hello"), FormatAuto, eau.ErrUnsupportedFormat},
		{"syntax", []byte("tempo;"), FormatText, eau.ErrMalformedSyntax},
		{"framing", []byte("\x00EAU\x00\x00\x00\x00"), FormatEAU, eau.ErrMalformedFraming},
		{"not midi", []byte("MThd"), FormatMIDI, eau.ErrUnsupportedFormat},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Convert(FormatAuto, tc.src, tc.format, Options{Name: "x"})
			if !errors.Is(err, tc.want) {
				t.Errorf("err = %v, want %v", err, tc.want)
			}
		})
	}
}
