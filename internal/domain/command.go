package domain

import "strconv"

type Kind string

const (
	KindDevice   Kind = "device"
	KindMood     Kind = "mood"
	KindSequence Kind = "sequence"
	KindCustom   Kind = "custom"
	KindStatus   Kind = "status"
	KindUpdate   Kind = "update"
)

// TextCommandPrefix is the marker used to indicate text commands (vs audio)
const TextCommandPrefix = "__TEXT__:"

// RoomAll is the pseudo-room addressed by whole-house phrases. It only
// supports switching everything off.
const RoomAll = "all"

// BulkPrefix marks a synthesized whole-room target such as "alloff" or
// "all50". Bulk targets are never user-configured moods.
const BulkPrefix = "all"

// Slots holds the raw text captured from a matched utterance. Slot values
// are unvalidated until resolution.
type Slots struct {
	Room   string
	Target string
	State  string
}

// Command is a fully resolved instruction ready for actuator dispatch.
// Target is a device, mood or sequence name depending on Kind; bulk moods
// carry an "all"-prefixed target with the state suffix in State.
type Command struct {
	Kind   Kind
	Room   string
	Target string
	State  string
}

// Action is the canonical record bound to a custom phrase trigger. Its
// fields feed the same per-kind resolution rules as inventory-generated
// matches.
type Action struct {
	Kind   Kind
	Room   string
	Target string
	State  string
}

// DimMarker prefixes a dim level in the Wi-Fi Link wire protocol,
// e.g. FdP16 for 50 percent.
const DimMarker = "FdP"

// DimLevel converts a 1-99 percentage to the link's 0-32 dim scale.
func DimLevel(percent int) int {
	return (percent*32 + 50) / 100
}

// ParsePercent reports whether a state string is a 1-99 percentage.
func ParsePercent(state string) (int, bool) {
	n, err := strconv.Atoi(state)
	if err != nil || n < 1 || n > 99 {
		return 0, false
	}
	return n, true
}

// BulkLevels maps the named whole-room levels to the dim scale.
var BulkLevels = map[string]int{
	"low":  8,
	"mid":  16,
	"high": 24,
	"full": 32,
}
