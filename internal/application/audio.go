package application

import (
	"context"
	"sync"
)

// Turn is one delivered utterance plus its completion channel. Data
// carries raw audio, or text behind domain.TextCommandPrefix. Complete
// reports the spoken response back to the source exactly once; later
// calls are ignored.
type Turn struct {
	Data []byte

	once  sync.Once
	reply func(response string)
}

func NewTurn(data []byte, reply func(response string)) *Turn {
	return &Turn{Data: data, reply: reply}
}

func (t *Turn) Complete(response string) {
	t.once.Do(func() {
		if t.reply != nil {
			t.reply(response)
		}
	})
}

// UtteranceSource delivers turns one at a time from the host proxy.
type UtteranceSource interface {
	Start(ctx context.Context) error
	Stop() error
	Next(ctx context.Context) (*Turn, error)
	Name() string
}
