package inventory

import (
	"strings"

	"lightwave-voice/internal/domain"
)

type Device struct {
	Name string
}

type Mood struct {
	Name string
}

type Room struct {
	Name    string
	Devices []Device
	Moods   []Mood

	deviceIndex map[string]int
	moodIndex   map[string]int
}

type Sequence struct {
	Name string
}

// CustomPhrase binds one or more trigger patterns to a configured action.
// Action may be nil when the configuration omitted or mangled it; the
// resolver reports that as a distinct failure.
type CustomPhrase struct {
	Inputs []string
	Action *domain.Action
}

// Inventory is an immutable snapshot of the configured rooms, devices,
// moods, sequences and custom phrases. It is built once at startup and
// never mutated, so lookups need no locking. Slices keep configuration
// insertion order; pattern registration order depends on it.
type Inventory struct {
	rooms     []Room
	sequences []Sequence
	custom    []CustomPhrase

	roomIndex map[string]int
	seqIndex  map[string]int
}

func New(rooms []Room, sequences []Sequence, custom []CustomPhrase) *Inventory {
	inv := &Inventory{
		rooms:     rooms,
		sequences: sequences,
		custom:    custom,
		roomIndex: make(map[string]int, len(rooms)),
		seqIndex:  make(map[string]int, len(sequences)),
	}

	for i := range inv.rooms {
		r := &inv.rooms[i]
		inv.roomIndex[nameKey(r.Name)] = i

		r.deviceIndex = make(map[string]int, len(r.Devices))
		for j, d := range r.Devices {
			r.deviceIndex[nameKey(d.Name)] = j
		}
		r.moodIndex = make(map[string]int, len(r.Moods))
		for j, m := range r.Moods {
			r.moodIndex[nameKey(m.Name)] = j
		}
	}

	for i, s := range inv.sequences {
		inv.seqIndex[nameKey(s.Name)] = i
	}

	return inv
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (inv *Inventory) Rooms() []Room {
	return inv.rooms
}

func (inv *Inventory) Sequences() []Sequence {
	return inv.sequences
}

func (inv *Inventory) CustomPhrases() []CustomPhrase {
	return inv.custom
}

func (inv *Inventory) HasRooms() bool {
	return len(inv.rooms) > 0
}

func (inv *Inventory) HasSequences() bool {
	return len(inv.sequences) > 0
}

func (inv *Inventory) LookupRoom(name string) (*Room, bool) {
	i, ok := inv.roomIndex[nameKey(name)]
	if !ok {
		return nil, false
	}
	return &inv.rooms[i], true
}

func (inv *Inventory) LookupSequence(name string) (*Sequence, bool) {
	i, ok := inv.seqIndex[nameKey(name)]
	if !ok {
		return nil, false
	}
	return &inv.sequences[i], true
}

func (r *Room) LookupDevice(name string) (*Device, bool) {
	i, ok := r.deviceIndex[nameKey(name)]
	if !ok {
		return nil, false
	}
	return &r.Devices[i], true
}

func (r *Room) LookupMood(name string) (*Mood, bool) {
	i, ok := r.moodIndex[nameKey(name)]
	if !ok {
		return nil, false
	}
	return &r.Moods[i], true
}
