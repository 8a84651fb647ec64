// Package preview holds the state of one document preview: the body being
// edited, its highlighted HTML, and the overlay showing a referenced
// document fetched on demand.
package preview

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/gubarz/sopmd/internal/markdown"
	"github.com/gubarz/sopmd/internal/refs"
	"github.com/gubarz/sopmd/internal/sop"
)

// Placeholder texts shown by the overlay.
const (
	LoadingText = "Loading…"
	FailedText  = "Failed to load referenced document."
)

// OverlayState is the lifecycle state of the reference overlay.
type OverlayState int

const (
	OverlayClosed OverlayState = iota
	OverlayLoading
	OverlayReady
	OverlayFailed
)

func (s OverlayState) String() string {
	switch s {
	case OverlayLoading:
		return "loading"
	case OverlayReady:
		return "ready"
	case OverlayFailed:
		return "failed"
	default:
		return "closed"
	}
}

// Overlay is what the reference overlay currently shows.
type Overlay struct {
	State   OverlayState
	Path    string
	Content string
}

// Open reports whether the overlay is visible.
func (o Overlay) Open() bool {
	return o.State != OverlayClosed
}

// FetchResult is the outcome of a FetchFunc.
type FetchResult struct {
	Path    string
	Content string
	Err     error
}

// FetchFunc performs one fetch of a referenced document. It may run on any
// goroutine; its result must be handed back with Session.Resolve.
type FetchFunc func(ctx context.Context) FetchResult

// Session is the preview of one document. It is not safe for concurrent use:
// all methods are called from the goroutine that owns the UI, and fetches
// report back through Resolve.
type Session struct {
	fetcher sop.Fetcher
	cache   *Cache
	logger  zerolog.Logger

	body   string
	index  *refs.Index
	html   string
	dirty  bool
	active bool

	overlay Overlay
}

// NewSession creates a session fetching references through fetcher and
// keeping at most cacheSize of them.
func NewSession(fetcher sop.Fetcher, cacheSize int, logger zerolog.Logger) *Session {
	return &Session{
		fetcher: fetcher,
		cache:   NewCache(cacheSize),
		logger:  logger,
		index:   refs.NewIndex(nil),
	}
}

// SetBody replaces the body and re-renders.
func (s *Session) SetBody(body string) {
	s.dirty = s.dirty || body != s.body
	s.body = body
	s.render()
}

// Load replaces the body with freshly loaded content that is not dirty.
func (s *Session) Load(body string) {
	s.body = body
	s.dirty = false
	s.render()
}

// SetDocuments replaces the known documents and re-renders.
func (s *Session) SetDocuments(docs []sop.Summary) {
	s.index = refs.NewIndex(docs)
	s.render()
}

func (s *Session) render() {
	s.html = s.index.Highlight(markdown.Render(s.body))
}

// Body returns the current markdown body.
func (s *Session) Body() string {
	return s.body
}

// Dirty reports whether SetBody changed the body since the last Load.
func (s *Session) Dirty() bool {
	return s.dirty
}

// HTML returns the highlighted HTML of the body.
func (s *Session) HTML() string {
	return s.html
}

// Markers returns the reference markers of the current HTML.
func (s *Session) Markers() []refs.Marker {
	return refs.Markers(s.html)
}

// Cache returns the session's reference cache.
func (s *Session) Cache() *Cache {
	return s.cache
}

// Overlay returns what the overlay currently shows.
func (s *Session) Overlay() Overlay {
	return s.overlay
}

// Active reports whether clicks are being handled.
func (s *Session) Active() bool {
	return s.active
}

// Activate starts handling clicks, when the preview becomes visible.
func (s *Session) Activate() {
	s.active = true
}

// Deactivate stops handling clicks and closes the overlay. Fetches already
// in flight still fill the cache when resolved.
func (s *Session) Deactivate() {
	s.active = false
	s.overlay = Overlay{}
}

// Click handles activation of an element in the preview. path is the
// element's target document, or "" when the element is not a marker.
//
// A cached reference opens immediately. Otherwise the overlay shows the
// loading placeholder and the returned FetchFunc must be run and its result
// passed to Resolve. A nil FetchFunc means there is nothing to fetch.
func (s *Session) Click(path string) (Overlay, FetchFunc) {
	if !s.active {
		return s.overlay, nil
	}

	if path == "" {
		if s.overlay.Open() {
			s.overlay = Overlay{}
		}
		return s.overlay, nil
	}

	if content, ok := s.cache.Get(path); ok {
		s.overlay = Overlay{State: OverlayReady, Path: path, Content: content}
		return s.overlay, nil
	}

	s.overlay = Overlay{State: OverlayLoading, Path: path, Content: LoadingText}
	s.logger.Debug().Str("path", path).Msg("fetching referenced document")
	return s.overlay, s.fetch(path)
}

func (s *Session) fetch(path string) FetchFunc {
	fetcher := s.fetcher
	return func(ctx context.Context) FetchResult {
		content, err := fetcher.FetchRaw(ctx, path)
		return FetchResult{Path: path, Content: content, Err: err}
	}
}

// Resolve records the result of a fetch. Successful content is cached even
// when the overlay has moved on; the overlay is only updated while it still
// waits for that path.
func (s *Session) Resolve(res FetchResult) Overlay {
	if res.Err != nil {
		s.logger.Warn().Err(res.Err).Str("path", res.Path).Msg("fetch referenced document")
	} else {
		s.cache.Put(res.Path, res.Content)
	}

	if s.overlay.State != OverlayLoading || s.overlay.Path != res.Path {
		return s.overlay
	}

	if res.Err != nil {
		s.overlay = Overlay{State: OverlayFailed, Path: res.Path, Content: FailedText}
	} else {
		s.overlay = Overlay{State: OverlayReady, Path: res.Path, Content: res.Content}
	}
	return s.overlay
}
