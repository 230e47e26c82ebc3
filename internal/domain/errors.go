package domain

import "fmt"

type FailureKind string

const (
	FailRoomNotFound         FailureKind = "room_not_found"
	FailDeviceNotFound       FailureKind = "device_not_found"
	FailMoodNotFound         FailureKind = "mood_not_found"
	FailRoomHasNoMoods       FailureKind = "room_has_no_moods"
	FailRoomHasNoDevices     FailureKind = "room_has_no_devices"
	FailSequenceNotFound     FailureKind = "sequence_not_found"
	FailNoRooms              FailureKind = "no_rooms_configured"
	FailNoSequences          FailureKind = "no_sequences_configured"
	FailCustomMissingAction  FailureKind = "custom_phrase_missing_action"
	FailBulkStateUnsupported FailureKind = "bulk_state_unsupported"
)

// ResolutionError is a recoverable, user-facing failure to turn matched
// slots into a Command. Entity and Room carry the names exactly as the
// user spoke them so the apology can repeat them back.
type ResolutionError struct {
	Kind   FailureKind
	Entity string
	Room   string
}

func (e *ResolutionError) Error() string {
	switch {
	case e.Entity != "" && e.Room != "":
		return fmt.Sprintf("%s: %q in %q", e.Kind, e.Entity, e.Room)
	case e.Entity != "":
		return fmt.Sprintf("%s: %q", e.Kind, e.Entity)
	case e.Room != "":
		return fmt.Sprintf("%s: room %q", e.Kind, e.Room)
	default:
		return string(e.Kind)
	}
}

// Spoken renders the apology sentence for this failure.
func (e *ResolutionError) Spoken() string {
	switch e.Kind {
	case FailRoomNotFound:
		return fmt.Sprintf("I'm sorry, I can't find '%s'.", e.Room)
	case FailDeviceNotFound:
		return fmt.Sprintf("I'm sorry, I can't find '%s' in the '%s'.", e.Entity, e.Room)
	case FailMoodNotFound:
		return fmt.Sprintf("I'm sorry, I can't find a mood called '%s' in the '%s'.", e.Entity, e.Room)
	case FailRoomHasNoMoods:
		return fmt.Sprintf("I'm sorry, I can't find any moods in the '%s'.", e.Room)
	case FailRoomHasNoDevices:
		return fmt.Sprintf("I'm sorry, I can't find any devices in the '%s'.", e.Room)
	case FailSequenceNotFound:
		return fmt.Sprintf("I'm sorry, I can't find a sequence called '%s'.", e.Entity)
	case FailNoRooms:
		return "I'm sorry, I can't find any rooms in your config file."
	case FailNoSequences:
		return "I'm sorry, I can't find any sequences in your config file."
	case FailCustomMissingAction:
		return "I'm sorry, that phrase doesn't have an action set up."
	case FailBulkStateUnsupported:
		return "I'm sorry, I'm only able to switch off all the lights in the house."
	default:
		return "Sorry, I encountered an error"
	}
}
