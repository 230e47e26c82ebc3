package pattern

import (
	"regexp"

	"lightwave-voice/internal/domain"
)

// slotMap records which capture group of a matcher's expression yields
// each slot. Zero means the slot is not captured.
type slotMap struct {
	room   int
	target int
	state  int
}

type matcher struct {
	re    *regexp.Regexp
	kind  domain.Kind
	slots slotMap

	// fixed slot values for templates with no capture for that slot,
	// e.g. the whole-house matcher pins Room to "all".
	fixed domain.Slots

	// bulk synthesizes the target "all<state>" from the state capture,
	// producing the whole-room pseudo-mood form.
	bulk bool

	// action is set on custom phrase matchers only.
	action *domain.Action
}

// Match is the outcome of a successful structural match. Slots are raw
// captured text; validation happens at resolution.
type Match struct {
	Kind   domain.Kind
	Slots  domain.Slots
	Action *domain.Action
}

// Table is the compiled, ordered matcher set. First match in
// registration order wins; the order is deterministic for a given
// inventory snapshot.
type Table struct {
	matchers []matcher
}

// Len reports how many matchers were compiled.
func (t *Table) Len() int {
	return len(t.matchers)
}

// Match tries the utterance against every compiled matcher in
// registration order. Matching is purely syntactic; extracted names may
// still fail resolution.
func (t *Table) Match(utterance string) (*Match, bool) {
	for i := range t.matchers {
		m := &t.matchers[i]
		groups := m.re.FindStringSubmatch(utterance)
		if groups == nil {
			continue
		}

		slots := m.fixed
		if m.slots.room > 0 {
			slots.Room = groups[m.slots.room]
		}
		if m.slots.target > 0 {
			slots.Target = groups[m.slots.target]
		}
		if m.slots.state > 0 {
			slots.State = groups[m.slots.state]
		}
		if m.bulk {
			slots.Target = domain.BulkPrefix + slots.State
			slots.State = ""
		}

		return &Match{Kind: m.kind, Slots: slots, Action: m.action}, true
	}
	return nil, false
}
