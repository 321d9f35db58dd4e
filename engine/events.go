package engine

import (
	"time"

	"crmdash/dashboard"
)

const (
	EventViewerLoggedIn EventType = iota + 1
	EventViewerLoggedOut
	EventViewChanged
	EventFetchCompleted
	EventFetchFailed
	EventCRMPulled
)

// --- Event payloads ---

type ViewerEvent struct {
	ViewerID string
}

// FetchEvent carries a settled dashboard fetch; Result.Err is set for
// EventFetchFailed.
type FetchEvent struct {
	ViewerID string
	Result   dashboard.FetchResult
}

type CRMPullEvent struct {
	OrderCount int
	Started    time.Time
	Duration   time.Duration
	Err        error
}
