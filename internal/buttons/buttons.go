package buttons

import (
	"context"
	"sync"
)

type Event string

const (
	// Export asks for one export of the live poster.
	Export Event = "export"
	// NextView cycles editor, gallery and settings.
	NextView Event = "next-view"
	Exit     Event = "exit"
)

type Buttons interface {
	Start(ctx context.Context) error
	Stop() error
	Events() <-chan Event
}

type NoopButtons struct {
	ch   chan Event
	once sync.Once
}

func NewNoopButtons() *NoopButtons { return &NoopButtons{ch: make(chan Event)} }

func (n *NoopButtons) Start(ctx context.Context) error { return nil }
func (n *NoopButtons) Stop() error {
	n.once.Do(func() { close(n.ch) })
	return nil
}
func (n *NoopButtons) Events() <-chan Event { return n.ch }

// Keymap maps Linux key codes to events.
type Keymap map[uint16]Event

// Linux input-event-codes.h
const (
	KeyF4 uint16 = 62
	KeyF5 uint16 = 63
	KeyF6 uint16 = 64
)

// DefaultKeymap is F5 export, F6 next view, F4 exit.
var DefaultKeymap = Keymap{
	KeyF5: Export,
	KeyF6: NextView,
	KeyF4: Exit,
}
