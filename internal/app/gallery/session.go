// Package gallery turns a set of uploaded images into a paginated,
// button-driven session.
package gallery

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	ErrNoPages    = errors.New("session needs at least one page")
	ErrOutOfRange = errors.New("page out of range")
	ErrUnknownNav = errors.New("unknown navigation")
)

// Order is the page ordering policy for albums.
type Order int

const (
	// MostRecentFirst shows the last submitted attachment on page 0.
	MostRecentFirst Order = iota
	// SubmissionOrder keeps pages in upload order.
	SubmissionOrder
)

// Nav is a button-level transition.
type Nav string

const (
	NavFirst Nav = "first"
	NavPrev  Nav = "prev"
	NavNext  Nav = "next"
	NavLast  Nav = "last"
)

func ParseNav(s string) (Nav, bool) {
	switch n := Nav(s); n {
	case NavFirst, NavPrev, NavNext, NavLast:
		return n, true
	}
	return "", false
}

type Page struct {
	Title string
	Media Attachment
}

// View is a snapshot of a session's current page, ready to render.
type View struct {
	SessionID string
	Page      Page
	Index     int
	Total     int
}

func (v View) First() bool { return v.Index == 0 }
func (v View) Last() bool  { return v.Index == v.Total-1 }

// InitialCursor is the page a new session opens on: the most recently
// submitted attachment under either order.
func InitialCursor(order Order, pages int) int {
	if order == SubmissionOrder && pages > 0 {
		return pages - 1
	}
	return 0
}

// BuildPages makes one full-size page per attachment, all sharing title.
func BuildPages(title string, media []Attachment, order Order) []Page {
	pages := make([]Page, len(media))
	for i, m := range media {
		pos := i
		if order == MostRecentFirst {
			pos = len(media) - 1 - i
		}
		pages[pos] = Page{Title: title, Media: m}
	}
	return pages
}

// Session owns the cursor of one gallery. Transitions are serialized.
type Session struct {
	id    string
	pages []Page

	mu      sync.Mutex
	cursor  int
	touched time.Time
	closed  bool
}

func NewSession(id string, pages []Page, cursor int) (*Session, error) {
	if len(pages) == 0 {
		return nil, ErrNoPages
	}
	if cursor < 0 || cursor >= len(pages) {
		return nil, fmt.Errorf("%w: initial cursor %d of %d", ErrOutOfRange, cursor, len(pages))
	}
	return &Session{id: id, pages: pages, cursor: cursor}, nil
}

func (s *Session) ID() string { return s.id }
func (s *Session) Len() int   { return len(s.pages) }

func (s *Session) Current() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view()
}

// Advance moves the cursor by delta, clamped to the first and last page.
// Moving past either end leaves the cursor where it is.
func (s *Session) Advance(delta int) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.advance(delta)
}

func (s *Session) Jump(target int) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jump(target)
}

func (s *Session) Navigate(n Nav) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.navigate(n)
}

func (s *Session) view() View {
	return View{SessionID: s.id, Page: s.pages[s.cursor], Index: s.cursor, Total: len(s.pages)}
}

func (s *Session) advance(delta int) View {
	next := s.cursor + delta
	if next < 0 {
		next = 0
	}
	if next > len(s.pages)-1 {
		next = len(s.pages) - 1
	}
	s.cursor = next
	return s.view()
}

func (s *Session) jump(target int) (View, error) {
	if target < 0 || target >= len(s.pages) {
		return View{}, fmt.Errorf("%w: page %d of %d", ErrOutOfRange, target+1, len(s.pages))
	}
	s.cursor = target
	return s.view(), nil
}

func (s *Session) navigate(n Nav) (View, error) {
	switch n {
	case NavFirst:
		return s.jump(0)
	case NavPrev:
		return s.advance(-1), nil
	case NavNext:
		return s.advance(1), nil
	case NavLast:
		return s.jump(len(s.pages) - 1)
	}
	return View{}, fmt.Errorf("%w: %q", ErrUnknownNav, n)
}
