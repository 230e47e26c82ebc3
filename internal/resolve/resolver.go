package resolve

import (
	"strings"

	"lightwave-voice/internal/domain"
	"lightwave-voice/internal/inventory"
)

// Resolver validates matched slots against the inventory snapshot and
// produces canonical commands. Failures are *domain.ResolutionError
// values carrying the names exactly as the user spoke them.
type Resolver struct {
	inv *inventory.Inventory
}

func New(inv *inventory.Inventory) *Resolver {
	return &Resolver{inv: inv}
}

// filler words carried purely for phrasing; stripped from slot text
// before lookup when the spoken form does not resolve directly.
var fillerSuffixes = []string{" room", " lights", " light"}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func stripFiller(s string) string {
	for _, suffix := range fillerSuffixes {
		if trimmed, ok := strings.CutSuffix(s, suffix); ok && trimmed != "" {
			return trimmed
		}
	}
	return s
}

// Resolve turns a matched kind and its raw slots into a Command.
func (r *Resolver) Resolve(kind domain.Kind, slots domain.Slots) (*domain.Command, error) {
	switch kind {
	case domain.KindDevice:
		return r.resolveDevice(slots)
	case domain.KindMood:
		return r.resolveMood(slots)
	case domain.KindSequence:
		return r.resolveSequence(slots)
	default:
		return nil, &domain.ResolutionError{Kind: domain.FailCustomMissingAction}
	}
}

// ResolveAction dispatches a custom phrase's configured action through
// the same per-kind rules as inventory-generated matches.
func (r *Resolver) ResolveAction(action *domain.Action) (*domain.Command, error) {
	if action == nil {
		return nil, &domain.ResolutionError{Kind: domain.FailCustomMissingAction}
	}
	return r.Resolve(action.Kind, domain.Slots{
		Room:   action.Room,
		Target: action.Target,
		State:  action.State,
	})
}

func (r *Resolver) lookupRoom(name string) (*inventory.Room, *domain.ResolutionError) {
	if !r.inv.HasRooms() {
		return nil, &domain.ResolutionError{Kind: domain.FailNoRooms}
	}
	key := normalize(name)
	if room, ok := r.inv.LookupRoom(key); ok {
		return room, nil
	}
	if room, ok := r.inv.LookupRoom(stripFiller(key)); ok {
		return room, nil
	}
	return nil, &domain.ResolutionError{Kind: domain.FailRoomNotFound, Room: name}
}

func (r *Resolver) resolveDevice(slots domain.Slots) (*domain.Command, error) {
	room, rerr := r.lookupRoom(slots.Room)
	if rerr != nil {
		return nil, rerr
	}

	if len(room.Devices) == 0 {
		return nil, &domain.ResolutionError{Kind: domain.FailRoomHasNoDevices, Room: slots.Room}
	}

	key := normalize(slots.Target)
	device, ok := room.LookupDevice(key)
	if !ok {
		device, ok = room.LookupDevice(stripFiller(key))
	}
	if !ok {
		return nil, &domain.ResolutionError{
			Kind:   domain.FailDeviceNotFound,
			Entity: slots.Target,
			Room:   slots.Room,
		}
	}

	// State is "on", "off" or a dim percent; anything else passes
	// through uninterpreted, as the actuator accepts raw states.
	return &domain.Command{
		Kind:   domain.KindDevice,
		Room:   room.Name,
		Target: device.Name,
		State:  normalize(slots.State),
	}, nil
}

func (r *Resolver) resolveMood(slots domain.Slots) (*domain.Command, error) {
	target := normalize(slots.Target)

	if normalize(slots.Room) == domain.RoomAll {
		if target != domain.BulkPrefix+"off" {
			return nil, &domain.ResolutionError{Kind: domain.FailBulkStateUnsupported, Room: slots.Room}
		}
		return &domain.Command{
			Kind:   domain.KindMood,
			Room:   domain.RoomAll,
			Target: target,
			State:  "off",
		}, nil
	}

	room, rerr := r.lookupRoom(slots.Room)
	if rerr != nil {
		return nil, rerr
	}

	if state, ok := strings.CutPrefix(target, domain.BulkPrefix); ok && state != "" {
		return &domain.Command{
			Kind:   domain.KindMood,
			Room:   room.Name,
			Target: target,
			State:  state,
		}, nil
	}

	if len(room.Moods) == 0 {
		return nil, &domain.ResolutionError{Kind: domain.FailRoomHasNoMoods, Room: slots.Room}
	}

	mood, ok := room.LookupMood(target)
	if !ok {
		mood, ok = room.LookupMood(stripFiller(target))
	}
	if !ok {
		return nil, &domain.ResolutionError{
			Kind:   domain.FailMoodNotFound,
			Entity: slots.Target,
			Room:   slots.Room,
		}
	}

	return &domain.Command{
		Kind:   domain.KindMood,
		Room:   room.Name,
		Target: mood.Name,
	}, nil
}

func (r *Resolver) resolveSequence(slots domain.Slots) (*domain.Command, error) {
	if !r.inv.HasSequences() {
		return nil, &domain.ResolutionError{Kind: domain.FailNoSequences}
	}

	key := normalize(slots.Target)
	seq, ok := r.inv.LookupSequence(key)
	if !ok {
		seq, ok = r.inv.LookupSequence(stripFiller(key))
	}
	if !ok {
		return nil, &domain.ResolutionError{Kind: domain.FailSequenceNotFound, Entity: slots.Target}
	}

	return &domain.Command{Kind: domain.KindSequence, Target: seq.Name}, nil
}
