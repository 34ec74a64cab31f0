package ticktock

import (
	"context"
	"errors"
	"sync"
)

// recordingNotifier captures every alert.
type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
	sounds   int
	err      error
}

func (n *recordingNotifier) Notify(_ context.Context, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.messages = append(n.messages, message)

	return n.err
}

func (n *recordingNotifier) PlaySound(context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.sounds++

	return n.err
}

func (n *recordingNotifier) Messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()

	return append([]string(nil), n.messages...)
}

func (n *recordingNotifier) Sounds() int {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.sounds
}

// failingStore fails every operation with errStore.
type failingStore struct{}

var errStore = errors.New("store unavailable")

func (failingStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, errStore }
func (failingStore) Set(context.Context, string, []byte) error        { return errStore }
func (failingStore) Remove(context.Context, string) error             { return errStore }

// renderLog records OnRender calls per component.
type renderLog struct {
	mu     sync.Mutex
	counts map[Component]int
}

func (r *renderLog) hooks() *Hooks {
	return &Hooks{OnRender: func(c Component) {
		r.mu.Lock()
		defer r.mu.Unlock()

		if r.counts == nil {
			r.counts = make(map[Component]int)
		}

		r.counts[c]++
	}}
}

func (r *renderLog) count(c Component) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.counts[c]
}
