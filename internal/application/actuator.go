package application

import "context"

// Actuator is the external hardware collaborator that performs the
// physical RF transmission and owns the configuration file.
type Actuator interface {
	Send(ctx context.Context, room, device, state string) error
	Mood(ctx context.Context, room, target string) error
	Sequence(ctx context.Context, name string) error
	UpdateConfig(ctx context.Context, email, pin string) error
	ConfigFile() string
}
