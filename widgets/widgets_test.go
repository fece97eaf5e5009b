package widgets

import (
	"strings"
	"testing"
)

func TestRenderKeyHelp(t *testing.T) {
	got := RenderKeyHelp([]KeySection{
		{Title: "Move", Keys: []KeyBinding{{"j/k", "down/up"}}},
		{Keys: []KeyBinding{{"q", "quit"}}},
	})
	want := "Move\n  j/k          down/up\n  q            quit"
	if got != want {
		t.Errorf("got\n%s\nwant\n%s", got, want)
	}
}

func TestRenderPan(t *testing.T) {
	tests := []struct {
		v    uint8
		want string
	}{
		{0x00, "|---+----"},
		{0x80, "----|----"},
		{0xff, "----+---|"},
	}
	for _, tc := range tests {
		if got := RenderPan(tc.v, 9); got != tc.want {
			t.Errorf("RenderPan(0x%02x) = %q, want %q", tc.v, got, tc.want)
		}
	}
}

func TestRenderBarWidth(t *testing.T) {
	got := RenderBar(0, 8, '#', '.', "#ffffff")
	if !strings.HasSuffix(got, "........") {
		t.Errorf("empty bar = %q", got)
	}
}

func TestFormatMillis(t *testing.T) {
	if got := FormatMillis(61_005); got != "1:01.005" {
		t.Errorf("FormatMillis = %q", got)
	}
}
