package session

import (
	"time"

	"github.com/kailas-cloud/pixsearch/internal/usecase/gallery"
)

// Status is the position of a session in its state machine.
type Status string

const (
	// StatusIdle means no results are displayed.
	StatusIdle Status = "idle"
	// StatusSearching means the first page of a new search is in flight.
	StatusSearching Status = "searching"
	// StatusDisplaying means results (or the empty-result notice) are shown.
	StatusDisplaying Status = "displaying"
	// StatusLoadingMore means a follow-up page is in flight.
	StatusLoadingMore Status = "loading_more"
	// StatusError is passed through when a fetch fails, before settling on a stable status.
	StatusError Status = "error"
)

// NoticeLevel classifies a user-visible notice.
type NoticeLevel string

const (
	// LevelInfo is an informational notice.
	LevelInfo NoticeLevel = "info"
	// LevelError is a failure notice.
	LevelError NoticeLevel = "error"
)

// User-visible notice messages.
const (
	MsgEmptyTerm    = "Please enter a search term."
	MsgInvalidTerm  = "Search term is too long. Please shorten it and try again."
	MsgNoResults    = "Sorry, there are no images matching your search query. Please try again!"
	MsgEndOfResults = "We're sorry, but you've reached the end of search results."
	MsgRateLimited  = "Too many requests. Please try again later."
	MsgFetchFailed  = "Something went wrong while loading images. Reference: %s."
)

// Notice is a toast-style message produced by the session.
type Notice struct {
	Ref     string      `json:"ref"`
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
	Time    time.Time   `json:"time"`
}

// State is the complete, explicit state of one search session.
type State struct {
	Status         Status       `json:"status"`
	Term           string       `json:"term"`
	Page           int          `json:"page"`
	TotalAvailable int          `json:"total_available"`
	Generation     uint64       `json:"generation"`
	Gallery        gallery.View `json:"gallery"`
	Notices        []Notice     `json:"notices,omitempty"`
}

// NewState returns the initial idle state.
func NewState() State {
	return State{
		Status:  StatusIdle,
		Gallery: gallery.View{Affordance: gallery.Affordance{Kind: gallery.AffordanceNone}},
	}
}

// Busy reports whether a fetch is in flight. Adapters show the loader while it is true.
func (s State) Busy() bool {
	return s.Status == StatusSearching || s.Status == StatusLoadingMore
}

// Clone returns a deep copy.
func (s State) Clone() State {
	out := s
	out.Gallery = s.Gallery.Clone()
	if s.Notices != nil {
		out.Notices = append([]Notice(nil), s.Notices...)
	}
	return out
}

// settled maps transient statuses onto the stable status a restored session resumes from.
func (s State) settled() State {
	switch s.Status {
	case StatusSearching:
		s.Status = StatusIdle
		s.Gallery.Clear()
	case StatusLoadingMore, StatusError:
		if s.Gallery.Len() > 0 {
			s.Status = StatusDisplaying
		} else {
			s.Status = StatusIdle
		}
	case "":
		s.Status = StatusIdle
	}
	return s
}
