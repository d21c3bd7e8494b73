package testutil

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

var ErrFileNotFound = errors.New("file not found")

// FileLookup is a fake profileimg.FileLookup.
// Ids listed in Blocked wait for Release (or their context) before answering.
type FileLookup struct {
	URLs map[string]string

	mu      sync.Mutex
	calls   map[string]int
	blocked map[string]chan struct{}
	started chan string
}

func NewFileLookup(urls map[string]string) *FileLookup {
	return &FileLookup{
		URLs:    urls,
		calls:   make(map[string]int),
		blocked: make(map[string]chan struct{}),
		started: make(chan string, 64),
	}
}

// Block makes the lookups of ids hang until Release.
func (f *FileLookup) Block(ids ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		f.blocked[id] = make(chan struct{})
	}
}

func (f *FileLookup) Release(ids ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		if ch, ok := f.blocked[id]; ok {
			close(ch)
			delete(f.blocked, id)
		}
	}
}

// Started yields the id of every lookup as it starts.
func (f *FileLookup) Started() <-chan string {
	return f.started
}

func (f *FileLookup) FileURL(ctx context.Context, id string) (string, error) {
	f.mu.Lock()
	f.calls[id]++
	gate := f.blocked[id]
	f.mu.Unlock()

	select {
	case f.started <- id:
	default:
	}

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	url, ok := f.URLs[id]
	if !ok {
		return "", errors.Wrap(ErrFileNotFound, id)
	}
	return url, nil
}

func (f *FileLookup) Calls(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

func (f *FileLookup) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	var total int
	for _, n := range f.calls {
		total += n
	}
	return total
}
