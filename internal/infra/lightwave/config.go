package lightwave

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"lightwave-voice/internal/domain"
	"lightwave-voice/internal/inventory"
)

// Config is the on-disk LightwaveRF configuration snapshot, in the
// format the actuator's web service produces.
type Config struct {
	Rooms     []RoomConfig   `yaml:"room"`
	Sequences SequenceList   `yaml:"sequence"`
	Phrases   []PhraseConfig `yaml:"custom_phrases"`
}

type RoomConfig struct {
	Name    string   `yaml:"name"`
	Devices []string `yaml:"device"`
	Moods   []string `yaml:"mood"`
}

// SequenceConfig is one entry of the sequence mapping. The key is the
// spoken sequence name; the value is the stored command list, kept but
// not interpreted here since the link runs its own stored copy.
type SequenceConfig struct {
	Key      string
	Commands []string
}

// SequenceList preserves the document order of the sequence mapping.
// Plain map decoding would randomize it, and matcher registration order
// must be reproducible across runs with identical configuration.
type SequenceList []SequenceConfig

func (l *SequenceList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("sequence: expected a mapping, got %v", node.Kind)
	}
	out := make(SequenceList, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var sc SequenceConfig
		if err := node.Content[i].Decode(&sc.Key); err != nil {
			return fmt.Errorf("sequence key: %w", err)
		}
		value := node.Content[i+1]
		switch value.Kind {
		case yaml.SequenceNode:
			if err := value.Decode(&sc.Commands); err != nil {
				return fmt.Errorf("sequence %q: %w", sc.Key, err)
			}
		case yaml.ScalarNode:
			var cmd string
			if err := value.Decode(&cmd); err != nil {
				return fmt.Errorf("sequence %q: %w", sc.Key, err)
			}
			if cmd != "" {
				sc.Commands = []string{cmd}
			}
		default:
			return fmt.Errorf("sequence %q: unexpected value kind %v", sc.Key, value.Kind)
		}
		out = append(out, sc)
	}
	*l = out
	return nil
}

// PhraseConfig is a user-authored trigger list bound to one action.
// The action is positional: [kind, kind-specific fields...].
type PhraseConfig struct {
	Inputs []string `yaml:"inputs"`
	Action []string `yaml:"action"`
}

// ParseAction turns the positional action list into a canonical record.
// A malformed or missing action yields nil; the resolver reports that
// as a configuration error when the phrase is spoken.
func (p PhraseConfig) ParseAction() *domain.Action {
	if len(p.Action) == 0 {
		return nil
	}
	switch domain.Kind(p.Action[0]) {
	case domain.KindDevice:
		if len(p.Action) < 4 {
			return nil
		}
		return &domain.Action{
			Kind:   domain.KindDevice,
			Room:   p.Action[1],
			Target: p.Action[2],
			State:  p.Action[3],
		}
	case domain.KindMood:
		if len(p.Action) < 3 {
			return nil
		}
		return &domain.Action{
			Kind:   domain.KindMood,
			Room:   p.Action[1],
			Target: p.Action[2],
		}
	case domain.KindSequence:
		if len(p.Action) < 2 {
			return nil
		}
		return &domain.Action{
			Kind:   domain.KindSequence,
			Target: p.Action[1],
		}
	}
	return nil
}

// Inventory converts the raw snapshot into the immutable, indexed form
// the pattern compiler and resolver consume.
func (c *Config) Inventory() *inventory.Inventory {
	rooms := make([]inventory.Room, 0, len(c.Rooms))
	for _, rc := range c.Rooms {
		room := inventory.Room{Name: rc.Name}
		for _, d := range rc.Devices {
			room.Devices = append(room.Devices, inventory.Device{Name: d})
		}
		for _, m := range rc.Moods {
			room.Moods = append(room.Moods, inventory.Mood{Name: m})
		}
		rooms = append(rooms, room)
	}

	sequences := make([]inventory.Sequence, 0, len(c.Sequences))
	for _, sc := range c.Sequences {
		sequences = append(sequences, inventory.Sequence{Name: sc.Key})
	}

	custom := make([]inventory.CustomPhrase, 0, len(c.Phrases))
	for _, pc := range c.Phrases {
		custom = append(custom, inventory.CustomPhrase{
			Inputs: pc.Inputs,
			Action: pc.ParseAction(),
		})
	}

	return inventory.New(rooms, sequences, custom)
}

// LoadConfig reads and parses the configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading lightwave config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing lightwave config: %w", err)
	}

	return &cfg, nil
}
