package out

import (
	"context"

	"carepath/internal/modules/protocol/domain"
)

// NavigationBus publishes "show this protocol" requests to whichever front
// end is listening. Publishing never blocks: when the buffer is full the
// oldest request is dropped so the newest always gets through.
type NavigationBus struct {
	ch chan string
}

func NewNavigationBus() *NavigationBus {
	return &NavigationBus{ch: make(chan string, 8)}
}

func (b *NavigationBus) ShowProtocol(_ context.Context, assignment domain.Assignment) {
	for {
		select {
		case b.ch <- assignment.ID:
			return
		default:
		}
		select {
		case <-b.ch:
		default:
		}
	}
}

// Requests streams assignment ids to display.
func (b *NavigationBus) Requests() <-chan string {
	return b.ch
}

// Pending drains buffered requests and returns the most recent one.
func (b *NavigationBus) Pending() (string, bool) {
	var last string
	found := false
	for {
		select {
		case id := <-b.ch:
			last, found = id, true
		default:
			return last, found
		}
	}
}
