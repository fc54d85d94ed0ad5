package memory

import (
	"context"
	"sync"

	"github.com/vietddude/crmsync/internal/core/domain"
)

// DeadLetterArchive is the in-process archive used when no database is
// configured. Contents do not survive a restart; the DLQ topic remains
// the durable copy.
type DeadLetterArchive struct {
	mu       sync.RWMutex
	letters  map[string]*domain.DeadLetter
	replayed map[string]bool
	order    []string
}

// NewDeadLetterArchive creates an empty in-memory archive.
func NewDeadLetterArchive() *DeadLetterArchive {
	return &DeadLetterArchive{
		letters:  make(map[string]*domain.DeadLetter),
		replayed: make(map[string]bool),
	}
}

func (a *DeadLetterArchive) Add(ctx context.Context, letter *domain.DeadLetter) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.letters[letter.ID]; ok {
		return nil
	}
	a.letters[letter.ID] = letter
	a.order = append(a.order, letter.ID)
	return nil
}

func (a *DeadLetterArchive) ListPending(ctx context.Context, limit int) ([]*domain.DeadLetter, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]*domain.DeadLetter, 0, limit)
	for _, id := range a.order {
		if a.replayed[id] {
			continue
		}
		out = append(out, a.letters[id])
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (a *DeadLetterArchive) MarkReplayed(ctx context.Context, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.letters[id]; ok {
		a.replayed[id] = true
	}
	return nil
}

func (a *DeadLetterArchive) Stats(ctx context.Context) (pending, replayed int, err error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for id := range a.letters {
		if a.replayed[id] {
			replayed++
		} else {
			pending++
		}
	}
	return pending, replayed, nil
}
