package eau

import (
	"bytes"
	"errors"
	"testing"
)

func TestDelayEncoding(t *testing.T) {
	tests := []struct {
		ms   int
		want []byte
	}{
		{0, nil},
		{5, []byte{0x05}},
		{63, []byte{0x3f}},
		{64, []byte{0x40}},
		{100, []byte{0x40, 0x24}},
		{4096, []byte{0x7f}},
		{5000, []byte{0x7f, 0x4d, 0x08}},
		{8192, []byte{0x7f, 0x7f}},
	}
	for _, tc := range tests {
		got := AppendEvent(nil, Event{Type: EventDelay, Delay: tc.ms})
		if !bytes.Equal(got, tc.want) {
			t.Errorf("delay %d: got %x, want %x", tc.ms, got, tc.want)
		}
		events, err := ReadEvents(got, 0)
		if err != nil {
			t.Fatalf("delay %d: %v", tc.ms, err)
		}
		sum := 0
		for _, ev := range events {
			sum += ev.Delay
		}
		if sum != tc.ms {
			t.Errorf("delay %d decodes to %d", tc.ms, sum)
		}
	}
}

func TestQuantizeDuration(t *testing.T) {
	tests := []struct {
		ms, want int
	}{
		{0, 0},
		{200, 200},
		{250, 252},
		{252, 252},
		{254, 256},
		{1000, 992},
		{2031, 2016},
		{2048, 2048},
		{5000, 5120},
		{MaxDuration, MaxDuration},
		{60000, MaxDuration},
	}
	for _, tc := range tests {
		if got := QuantizedDuration(tc.ms); got != tc.want {
			t.Errorf("QuantizedDuration(%d) = %d, want %d", tc.ms, got, tc.want)
		}
		if got := QuantizedDuration(tc.ms); QuantizedDuration(got) != got {
			t.Errorf("quantized %d is not stable", got)
		}
	}
	if _, _, clamped := QuantizeDuration(60000); !clamped {
		t.Error("60000 ms should clamp")
	}
}

func TestNoteAndWheelRecords(t *testing.T) {
	in := []Event{
		{Type: EventNote, Chid: 0xab, Noteid: 127, Velocity: 1, Duration: 200},
		{Type: EventNote, Chid: 0, Noteid: 0, Velocity: 127, Duration: 16128},
		{Type: EventWheel, Chid: 4, Wheel: 0x20},
	}
	data, loop := EncodeEvents(in)
	if loop != 0 {
		t.Errorf("loop = %d", loop)
	}
	if len(data) != 4+4+3 {
		t.Fatalf("encoded %d bytes", len(data))
	}
	out, err := ReadEvents(data, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != len(in) {
		t.Fatalf("decoded %d events", len(out))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("event %d: got %+v, want %+v", i, out[i], in[i])
		}
	}
}

func TestEncodeEventsMergesDelays(t *testing.T) {
	tests := []struct {
		name string
		in   []int
		want []byte
	}{
		{"two fine", []int{10, 10}, []byte{0x14}},
		{"fine into coarse", []int{63, 1}, []byte{0x40}},
		{"chain", []int{4096, 896, 8}, []byte{0x7f, 0x4d, 0x08}},
		{"zero dropped", []int{0, 0}, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var in []Event
			for _, ms := range tc.in {
				in = append(in, Event{Type: EventDelay, Delay: ms})
			}
			data, _ := EncodeEvents(in)
			if !bytes.Equal(data, tc.want) {
				t.Errorf("EncodeEvents = % x, want % x", data, tc.want)
			}
		})
	}

	// a loop marker keeps delays on either side apart
	data, loop := EncodeEvents([]Event{
		{Type: EventDelay, Delay: 10},
		{Type: EventLoop},
		{Type: EventDelay, Delay: 10},
	})
	if !bytes.Equal(data, []byte{0x0a, 0x0a}) || loop != 1 {
		t.Errorf("got % x loop %d, want 0a 0a loop 1", data, loop)
	}
}

func TestLoopMarker(t *testing.T) {
	in := []Event{
		{Type: EventDelay, Delay: 10},
		{Type: EventLoop},
		{Type: EventNote, Chid: 1, Noteid: 60, Velocity: 80, Duration: 100},
	}
	data, loop := EncodeEvents(in)
	if loop != 1 {
		t.Fatalf("loop = %d, want 1", loop)
	}
	out, err := ReadEvents(data, loop)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 3 || out[1].Type != EventLoop {
		t.Errorf("decoded %+v", out)
	}

	// a loop at the very end still appears
	out, err = ReadEvents(data, len(data))
	if err != nil {
		t.Fatal(err)
	}
	if out[len(out)-1].Type != EventLoop {
		t.Errorf("last event %v, want loop", out[len(out)-1].Type)
	}
}

func TestEventRejects(t *testing.T) {
	tests := []struct {
		name string
		src  []byte
	}{
		{"UnknownOpcode", []byte{0xc1}},
		{"ShortNote", []byte{0x80, 0x00}},
		{"ReservedTier", []byte{0xb0, 0, 0, 0}},
		{"ShortWheel", []byte{0xc0, 0x01}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ReadEvents(tc.src, 0); !errors.Is(err, ErrMalformedFraming) {
				t.Errorf("err = %v", err)
			}
		})
	}
}
