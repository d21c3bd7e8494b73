package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

type reply struct {
	code int
	body interface{}
}

// Upstream is a fake remote service answering canned JSON per request path.
// Unknown paths answer 404.
type Upstream struct {
	*httptest.Server

	mu      sync.Mutex
	replies map[string]reply
	reqs    []*http.Request
}

// NewUpstream starts an Upstream, closed when t completes.
func NewUpstream(t *testing.T) *Upstream {
	u := &Upstream{replies: make(map[string]reply)}
	u.Server = httptest.NewServer(http.HandlerFunc(u.serve))
	t.Cleanup(u.Close)
	return u
}

// Reply makes path answer code with body marshalled to JSON.
func (u *Upstream) Reply(path string, code int, body interface{}) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.replies[path] = reply{code: code, body: body}
}

// Requests returns the requests received so far.
func (u *Upstream) Requests() []*http.Request {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]*http.Request(nil), u.reqs...)
}

func (u *Upstream) serve(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	u.reqs = append(u.reqs, r.Clone(r.Context()))
	rep, ok := u.replies[r.URL.Path]
	u.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not found"}`))
		return
	}
	w.WriteHeader(rep.code)
	_ = json.NewEncoder(w).Encode(rep.body)
}
