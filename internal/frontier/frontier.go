// Package frontier tracks the visited and pending URL sets for one crawl
// session. The two sets are disjoint at all times and a URL that has been
// visited never re-enters pending.
package frontier

import "sync"

// AcceptFunc decides whether a candidate URL belongs to the crawl at all.
// Offers failing the predicate are silent no-ops.
type AcceptFunc func(url string) bool

// Frontier is the in-memory URL state for a single session. Pending is
// FIFO so runs over the same link graph are reproducible.
type Frontier struct {
	mu      sync.Mutex
	accept  AcceptFunc
	visited map[string]struct{}
	queued  map[string]struct{}
	pending []string
}

// New builds a Frontier. A nil accept predicate accepts everything.
func New(accept AcceptFunc) *Frontier {
	if accept == nil {
		accept = func(string) bool { return true }
	}
	return &Frontier{
		accept:  accept,
		visited: make(map[string]struct{}),
		queued:  make(map[string]struct{}),
	}
}

// Offer adds url to pending iff it passes the accept predicate and is
// neither pending nor visited already. Reports whether it was enqueued.
func (f *Frontier) Offer(url string) bool {
	if !f.accept(url) {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, seen := f.visited[url]; seen {
		return false
	}
	if _, queued := f.queued[url]; queued {
		return false
	}
	f.queued[url] = struct{}{}
	f.pending = append(f.pending, url)
	return true
}

// Seed enqueues a starting URL directly, bypassing the accept predicate.
// Seeds are configured rather than discovered, so the link filter does not
// apply to them; dedup against visited and pending still does.
func (f *Frontier) Seed(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, seen := f.visited[url]; seen {
		return false
	}
	if _, queued := f.queued[url]; queued {
		return false
	}
	f.queued[url] = struct{}{}
	f.pending = append(f.pending, url)
	return true
}

// TakeNext removes and returns the oldest pending URL; ok is false when
// pending is empty.
func (f *Frontier) TakeNext() (url string, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.pending) == 0 {
		return "", false
	}
	url = f.pending[0]
	f.pending = f.pending[1:]
	delete(f.queued, url)
	return url, true
}

// MarkVisited records url as terminally processed. Idempotent; also drops
// the URL from pending if a concurrent offer slipped it back in.
func (f *Frontier) MarkVisited(url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visited[url] = struct{}{}
	if _, queued := f.queued[url]; queued {
		delete(f.queued, url)
		for i, p := range f.pending {
			if p == url {
				f.pending = append(f.pending[:i], f.pending[i+1:]...)
				break
			}
		}
	}
}

// IsVisited reports whether url has been processed this session.
func (f *Frontier) IsVisited(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, seen := f.visited[url]
	return seen
}

// PendingLen returns the number of queued URLs.
func (f *Frontier) PendingLen() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

// VisitedLen returns the number of processed URLs.
func (f *Frontier) VisitedLen() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visited)
}
