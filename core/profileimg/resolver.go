package profileimg

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/mahudhurio/core"
)

// FileLookup resolves an opaque storage file id into a display URL.
type FileLookup interface {
	FileURL(ctx context.Context, id string) (string, error)
}

// URLMap maps a student id to the display URL of its profile image.
// Students whose image is unresolved or failed have no entry.
type URLMap map[int]string

type Option func(*Resolver)

// WithConcurrency caps the number of lookups in flight per batch (<= 0: unbounded).
func WithConcurrency(n int) Option {
	return func(r *Resolver) { r.limit = n }
}

// WithLookupTimeout bounds every single lookup (<= 0: no timeout).
func WithLookupTimeout(d time.Duration) Option {
	return func(r *Resolver) { r.timeout = d }
}

// Resolver resolves the profile images of a student list in batches.
//
// Each call to Resolve starts a new batch and supersedes the one in flight:
// the old batch's context is cancelled and its result is never published.
// A batch publishes its map once, after all of its lookups have settled.
type Resolver struct {
	lookup  FileLookup
	logger  core.Logger
	limit   int
	timeout time.Duration

	mu      sync.Mutex
	gen     uint64
	cancel  context.CancelFunc
	current URLMap
}

func NewResolver(lookup FileLookup, logger core.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		lookup:  lookup,
		logger:  logger,
		current: URLMap{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var schemeRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.\-]*://`)

// IsURL reports whether ref can be displayed as is.
func IsURL(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "data:") || strings.HasPrefix(lower, "blob:") || schemeRegex.MatchString(ref)
}

// Current returns the last published map. It must not be modified.
func (r *Resolver) Current() URLMap {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Resolve resolves the images of students. It returns false, and a nil map,
// when a newer call superseded this batch before it settled.
func (r *Resolver) Resolve(ctx context.Context, students []core.Student) (URLMap, bool) {
	r.mu.Lock()
	r.gen++
	gen := r.gen
	if r.cancel != nil {
		r.cancel() // superseded
	}
	bctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.mu.Unlock()
	defer cancel()

	urls := make(URLMap, len(students))
	pending := make(map[string][]int) // file id -> student ids
	var ids []string
	for _, s := range students {
		ref := strings.TrimSpace(s.ProfileImage)
		switch {
		case ref == "":
		case IsURL(ref):
			urls[s.ID] = ref
		default:
			if _, ok := pending[ref]; !ok {
				ids = append(ids, ref)
			}
			pending[ref] = append(pending[ref], s.ID)
		}
	}

	if len(ids) > 0 {
		var mu sync.Mutex
		var g errgroup.Group
		if r.limit > 0 {
			g.SetLimit(r.limit)
		}
		for _, id := range ids {
			id := id
			g.Go(func() error {
				url, err := r.fileURL(bctx, id)
				if err != nil {
					if bctx.Err() == nil {
						r.warn(fmt.Sprintf("resolving profile image %q", id), err)
					}
					return nil // omit, never fail the batch
				}
				mu.Lock()
				for _, sid := range pending[id] {
					urls[sid] = url
				}
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen {
		return nil, false
	}
	r.cancel = nil
	r.current = urls
	return urls, true
}

func (r *Resolver) warn(msg string, err error) {
	if r.logger != nil {
		r.logger.Warn(msg, err)
	}
}

func (r *Resolver) fileURL(ctx context.Context, id string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	url, err := r.lookup.FileURL(ctx, id)
	if err != nil {
		return "", err
	}
	if url == "" {
		return "", errors.Errorf("empty url for file %q", id)
	}
	return url, nil
}
