package pattern

import (
	"fmt"
	"regexp"

	"lightwave-voice/internal/domain"
	"lightwave-voice/internal/inventory"
)

// Fixed phrase templates. Entity positions (%s) are filled with
// regexp-quoted names from the inventory, one matcher per template and
// entity combination. All matching is case-insensitive and unanchored,
// except the whole-house template which is end-anchored so it cannot
// swallow the per-room bulk phrasings.
const (
	tmplStatus = `test lightwave`
	tmplUpdate = `(?:update|download)(?: my)? lightwave (?:config|setup|data|device list)`

	tmplHouseOff = `turn off all (?:of )?the lights(?: in the house)?$`

	tmplDeviceOnOffA = `turn (on|off) the (%s) in the (%s)`
	tmplDeviceOnOffB = `turn (on|off) the (%s) (%s)`
	tmplDeviceOnOffC = `turn the (%s) in the (%s) (on|off)`
	tmplDeviceOnOffD = `turn the (%s) (%s) (on|off)`

	dimVerbs     = `(?:dim|set|turn up|turn down|set level on|set the level on)`
	tmplDimA     = dimVerbs + ` the (%s) in the (%s) to ([1-9][0-9]?)(?:%%| ?percent)?`
	tmplDimB     = dimVerbs + ` the (%s) (%s) to ([1-9][0-9]?)(?:%%| ?percent)?`

	tmplRoomBulkOnOff = `turn (on|off) all (?:of )?the lights in the (%s)`
	tmplRoomBulkSet   = `set all (?:of )?the lights in the (%s) to (low|mid|high|full|[1-9][0-9]?)(?:%%| ?percent)?`

	tmplMoodA = `(?:set|activate) (?:the )?mood (%s) in the (%s)`
	tmplMoodB = `(?:set|activate) (?:the )?(%s) mood in the (%s)`

	tmplSequenceA = `(?:run|launch|activate) (?:the )?sequence (%s)`
	tmplSequenceB = `(?:run|launch|activate) (?:the )?(%s) sequence`
)

// Compile expands the template catalogue against the inventory snapshot
// into an ordered matcher table. Registration order, which decides
// first-match ties:
//
//  1. custom phrase triggers, so a verbatim trigger always beats any
//     generated pattern
//  2. status and config-update phrases
//  3. whole-house off
//  4. per room: device on/off, device dim, room bulk, named moods
//  5. sequences
//
// Within a template, entities follow inventory insertion order. A
// template with no configured entities simply contributes no matchers.
func Compile(inv *inventory.Inventory) (*Table, error) {
	t := &Table{}

	for _, phrase := range inv.CustomPhrases() {
		for _, input := range phrase.Inputs {
			re, err := regexp.Compile(`(?i)` + input)
			if err != nil {
				return nil, fmt.Errorf("compiling custom phrase %q: %w", input, err)
			}
			t.add(matcher{re: re, kind: domain.KindCustom, action: phrase.Action})
		}
	}

	t.add(matcher{re: compileCI(tmplStatus), kind: domain.KindStatus})
	t.add(matcher{re: compileCI(tmplUpdate), kind: domain.KindUpdate})

	t.add(matcher{
		re:    compileCI(tmplHouseOff),
		kind:  domain.KindMood,
		fixed: domain.Slots{Room: domain.RoomAll, Target: domain.BulkPrefix + "off"},
	})

	for _, room := range inv.Rooms() {
		roomPat := regexp.QuoteMeta(room.Name)

		for _, dev := range room.Devices {
			devPat := regexp.QuoteMeta(dev.Name)

			t.addf(tmplDeviceOnOffA, domain.KindDevice, slotMap{state: 1, target: 2, room: 3}, devPat, roomPat)
			t.addf(tmplDeviceOnOffB, domain.KindDevice, slotMap{state: 1, room: 2, target: 3}, roomPat, devPat)
			t.addf(tmplDeviceOnOffC, domain.KindDevice, slotMap{target: 1, room: 2, state: 3}, devPat, roomPat)
			t.addf(tmplDeviceOnOffD, domain.KindDevice, slotMap{room: 1, target: 2, state: 3}, roomPat, devPat)

			t.addf(tmplDimA, domain.KindDevice, slotMap{target: 1, room: 2, state: 3}, devPat, roomPat)
			t.addf(tmplDimB, domain.KindDevice, slotMap{room: 1, target: 2, state: 3}, roomPat, devPat)
		}

		t.add(matcher{
			re:    compileCI(fmt.Sprintf(tmplRoomBulkOnOff, roomPat)),
			kind:  domain.KindMood,
			slots: slotMap{state: 1, room: 2},
			bulk:  true,
		})
		t.add(matcher{
			re:    compileCI(fmt.Sprintf(tmplRoomBulkSet, roomPat)),
			kind:  domain.KindMood,
			slots: slotMap{room: 1, state: 2},
			bulk:  true,
		})

		for _, mood := range room.Moods {
			moodPat := regexp.QuoteMeta(mood.Name)
			t.addf(tmplMoodA, domain.KindMood, slotMap{target: 1, room: 2}, moodPat, roomPat)
			t.addf(tmplMoodB, domain.KindMood, slotMap{target: 1, room: 2}, moodPat, roomPat)
		}
	}

	for _, seq := range inv.Sequences() {
		seqPat := regexp.QuoteMeta(seq.Name)
		t.addf(tmplSequenceA, domain.KindSequence, slotMap{target: 1}, seqPat)
		t.addf(tmplSequenceB, domain.KindSequence, slotMap{target: 1}, seqPat)
	}

	return t, nil
}

func (t *Table) add(m matcher) {
	t.matchers = append(t.matchers, m)
}

func (t *Table) addf(tmpl string, kind domain.Kind, slots slotMap, entities ...any) {
	t.add(matcher{
		re:    compileCI(fmt.Sprintf(tmpl, entities...)),
		kind:  kind,
		slots: slots,
	})
}

func compileCI(expr string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + expr)
}
