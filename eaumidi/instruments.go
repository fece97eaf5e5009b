package eaumidi

import (
	"sort"

	"eau-tools/eau"
)

// InstrumentStore resolves a fully-qualified program id (bank<<7 | program) to a
// prebuilt channel header. The returned channel's Chid is ignored.
type InstrumentStore interface {
	Instrument(fqpid int) (eau.Channel, bool)
}

// InstrumentFunc adapts a plain function to InstrumentStore
type InstrumentFunc func(fqpid int) (eau.Channel, bool)

func (f InstrumentFunc) Instrument(fqpid int) (eau.Channel, bool) { return f(fqpid) }

// Instruments is a store read from an EAU file whose channel headers are keyed
// by fqpid instead of channel number. Bank 0 melodic programs live at 0x00..0x7f
// and bank 1 drum kits at 0x80..0xff.
type Instruments struct {
	byID map[int]eau.Channel
}

// LoadInstruments builds a store from the channel headers of an EAU serial
func LoadInstruments(src []byte) (*Instruments, error) {
	f, err := eau.Split(src)
	if err != nil {
		return nil, err
	}
	channels, err := eau.ReadChannels(f.Chdr)
	if err != nil {
		return nil, err
	}
	s := &Instruments{byID: make(map[int]eau.Channel, len(channels))}
	for _, ch := range channels {
		s.byID[int(ch.Chid)] = ch
	}
	return s, nil
}

func (s *Instruments) Instrument(fqpid int) (eau.Channel, bool) {
	if s == nil {
		return eau.Channel{}, false
	}
	ch, ok := s.byID[fqpid]
	return ch, ok
}

// IDs lists the stored fqpids in ascending order
func (s *Instruments) IDs() []int {
	ids := make([]int, 0, len(s.byID))
	for id := range s.byID {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Len returns the number of stored instruments
func (s *Instruments) Len() int { return len(s.byID) }

// fallbackChain lists the fqpids tried for a requested instrument, best first
func fallbackChain(fqpid int) []int {
	chain := []int{fqpid}
	add := func(id int) {
		for _, have := range chain {
			if have == id {
				return
			}
		}
		chain = append(chain, id)
	}
	add(fqpid &^ 7)
	if fqpid >= 0x88 && fqpid <= 0x8f {
		add(0x80)
	}
	if fqpid>>7 != 0 {
		add(fqpid & 0x7f)
	}
	add(0)
	return chain
}

// resolve walks the fallback chain and reports the fqpid that matched
func resolve(store InstrumentStore, fqpid int) (eau.Channel, int, bool) {
	if store == nil {
		return eau.Channel{}, 0, false
	}
	for _, id := range fallbackChain(fqpid) {
		if ch, ok := store.Instrument(id); ok {
			return ch, id, true
		}
	}
	return eau.Channel{}, 0, false
}
