package eautext

import (
	"bytes"
	"errors"
	"testing"

	"eau-tools/eau"
)

func TestCompileExample(t *testing.T) {
	src := `tempo 500; chdr { chid 0; mode fm; } events { note 0 64 64 200; delay 100; }`
	serial, err := Compile([]byte(src))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	song, err := eau.Decode(serial)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if song.Tempo != 500 || len(song.Channels) != 1 || song.Channels[0].Mode != eau.ModeFM {
		t.Errorf("unexpected song header: %+v", song)
	}
	got, err := eau.EstimateDuration(serial, eau.MethodRoundUp)
	if err != nil {
		t.Fatal(err)
	}
	if got != 500 {
		t.Errorf("roundup duration = %d, want 500", got)
	}
}

func TestCompileLoopPoint(t *testing.T) {
	src := `
events {
  note 0 60 100 100;
  delay 50;
}
events {
  note 0 62 100 100;
}
`
	serial, err := Compile([]byte(src))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	f, err := eau.Split(serial)
	if err != nil {
		t.Fatal(err)
	}
	// one note record and one fine delay precede the loop
	if f.Loop != 5 {
		t.Errorf("loop = %d, want 5", f.Loop)
	}
}

func TestCompileNames(t *testing.T) {
	src := `
chdr {
  chid 3;
  name "Kit";
  mode drum;
  modecfg {
    drum { note 38; name "Snare"; }
    drum { note 36; name "Kick"; trim 0x40..0xc0; }
  }
}
text 3 0xff "Ignored";
text 2 40 "Tom";
`
	serial, err := Compile([]byte(src))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	song, err := eau.Decode(serial)
	if err != nil {
		t.Fatal(err)
	}
	want := []eau.Name{
		{Chid: 2, Noteid: 40, Text: "Tom"},
		{Chid: 3, Noteid: 0, Text: "Kit"},
		{Chid: 3, Noteid: 0, Text: "Ignored"},
		{Chid: 3, Noteid: 36, Text: "Kick"},
		{Chid: 3, Noteid: 38, Text: "Snare"},
	}
	if len(song.Names) != len(want) {
		t.Fatalf("names = %+v", song.Names)
	}
	for i := range want {
		if song.Names[i] != want[i] {
			t.Errorf("name %d = %+v, want %+v", i, song.Names[i], want[i])
		}
	}
	cfg, _, err := song.Channels[0].DecodeConfig()
	if err != nil {
		t.Fatal(err)
	}
	kick, ok := cfg.(*eau.DrumConfig).Voice(36)
	if !ok || kick.TrimLo != 0x40 || kick.TrimHi != 0xc0 || kick.Pan != eau.DefaultPan {
		t.Errorf("kick voice = %+v", kick)
	}
}

func TestCompileEnvelope(t *testing.T) {
	src := `
chdr {
  chid 0;
  mode fm;
  modecfg {
    levelenv =0x1000 +10..5 =0xffff +100 =0x4000..0x8000* +300..500 =0;
  }
}
`
	serial, err := Compile([]byte(src))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	song, err := eau.Decode(serial)
	if err != nil {
		t.Fatal(err)
	}
	cfg, rest, err := song.Channels[0].DecodeConfig()
	if err != nil || len(rest) != 0 {
		t.Fatalf("decode config: %v (%d left)", err, len(rest))
	}
	env := cfg.(*eau.FMConfig).LevelEnv
	want := eau.Envelope{
		HasInit: true, Init: 0x1000, InitHi: 0x1000,
		Points: []eau.EnvelopePoint{
			{Time: 10, TimeHi: 5, Level: 0xffff, LevelHi: 0xffff},
			{Time: 100, TimeHi: 100, Level: 0x4000, LevelHi: 0x8000},
			{Time: 300, TimeHi: 500, Level: 0, LevelHi: 0},
		},
		HasSustain: true, Sustain: 1,
	}
	if !env.Equal(&want) {
		t.Errorf("envelope = %+v", env)
	}
}

func TestCompileNestedSerial(t *testing.T) {
	src := `
chdr {
  chid 9;
  mode drum;
  modecfg {
    drum {
      note 36;
      serial {
        chdr { chid 0; mode harsh; modecfg { shape square; } }
        events { note 0 36 127 100; }
      }
    }
  }
}
`
	serial, err := Compile([]byte(src))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if err := eau.Validate(serial); err != nil {
		t.Fatalf("validate: %v", err)
	}
	song, _ := eau.Decode(serial)
	cfg, _, _ := song.Channels[0].DecodeConfig()
	voice, ok := cfg.(*eau.DrumConfig).Voice(36)
	if !ok {
		t.Fatal("voice 36 missing")
	}
	inner, err := eau.Decode(voice.Serial)
	if err != nil {
		t.Fatalf("nested decode: %v", err)
	}
	if len(inner.Channels) != 1 || inner.Channels[0].Mode != eau.ModeHarsh {
		t.Errorf("nested channels = %+v", inner.Channels)
	}
}

func TestCompileRawModecfg(t *testing.T) {
	src := `chdr { chid 1; mode 0x09; modecfg { 0x0102 0x03; 0x04; } }`
	serial, err := Compile([]byte(src))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	song, _ := eau.Decode(serial)
	ch := song.Channels[0]
	if ch.Mode != eau.Mode(9) || !bytes.Equal(ch.Config, []byte{1, 2, 3, 4}) {
		t.Errorf("channel = %+v", ch)
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line int
	}{
		{"unknown statement", "tempo 500;\nbogus 1;", 2},
		{"unknown chdr field", "tempo 500;\nchdr { chid 0; volume 1; }", 2},
		{"duplicate field", "chdr {\n  chid 0;\n  chid 1;\n}", 3},
		{"duplicate tempo", "tempo 400;\n\ntempo 500;", 3},
		{"tempo out of range", "tempo 40000;", 1},
		{"tempo zero", "\ntempo 0;", 2},
		{"trim out of range", "chdr {\n  chid 0;\n  trim 256;\n}", 3},
		{"duration too long", "events {\n  note 0 60 100 20000;\n}", 2},
		{"unclosed block", "tempo 500;\n\nchdr {\n  chid 0;\n", 3},
		{"unterminated string", "chdr { chid 0;\n name \"abc", 2},
		{"missing chid", "chdr {\n  trim 1;\n}", 1},
		{"duplicate chdr", "chdr { chid 4; }\nchdr { chid 4; }", 2},
		{"three events blocks", "events { }\nevents { }\nevents { }", 3},
		{"events not adjacent", "events { }\ntempo 500;\nevents { }", 3},
		{"unknown mode", "chdr {\n  chid 0;\n  mode organ;\n}", 3},
		{"unknown fm field", "chdr { chid 0; mode fm;\n  modecfg {\n    detune 3;\n  }\n}", 3},
		{"two sustain points", "chdr { chid 0; mode fm; modecfg {\n levelenv +1 =2* +3 =4*;\n} }", 2},
		{"structured noop", "chdr { chid 0;\n modecfg { rate 1; } }", 2},
		{"duplicate drum voice", "chdr { chid 0; mode drum; modecfg {\n drum { note 1; }\n drum { note 1; }\n} }", 3},
		{"voice without note", "chdr { chid 0; mode drum; modecfg {\n drum { pan 3; }\n} }", 2},
		{"named voice on note 0", "chdr { chid 0; mode drum; modecfg {\n drum { note 0; name \"Low\"; }\n} }", 2},
		{"bad nested serial", "chdr { chid 0; mode drum; modecfg {\n drum { note 1;\n serial {\n tempo 0;\n }\n }\n} }", 4},
		{"odd hex", "chdr { chid 0; mode 9; modecfg {\n 0x123;\n} }", 2},
		{"unknown post stage", "chdr { chid 0; post {\n chorus;\n} }", 2},
		{"missing semicolon", "tempo 500", 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Compile([]byte(tc.src))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !errors.Is(err, eau.ErrMalformedSyntax) {
				t.Errorf("error %v does not wrap ErrMalformedSyntax", err)
			}
			var se *eau.SyntaxError
			if !errors.As(err, &se) {
				t.Fatalf("error %T is not a SyntaxError", err)
			}
			if se.Line != tc.line {
				t.Errorf("line = %d, want %d (%v)", se.Line, tc.line, err)
			}
		})
	}
}

func TestCompileDrumDepth(t *testing.T) {
	src := "events { }"
	for i := 0; i < eau.MaxDepth+1; i++ {
		src = "chdr { chid 0; mode drum; modecfg { drum { note 1; serial { " + src + " } } } }"
	}
	if _, err := Compile([]byte(src)); !errors.Is(err, eau.ErrMalformedSyntax) {
		t.Errorf("err = %v, want syntax error for deep nesting", err)
	}
}
