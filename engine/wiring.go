package engine

import (
	"crmdash/messaging"
	"crmdash/store"
)

const messageSource = "crmdash"

func (e *Engine) wireEventHandlers() {
	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(FetchEvent)
		e.recordFetch(&store.FetchEntry{
			Source:     store.SourceDashboard,
			ViewerID:   ev.ViewerID,
			OrderCount: ev.Result.OrderCount,
			StartedAt:  ev.Result.Started,
			Duration:   ev.Result.Finished.Sub(ev.Result.Started),
		}, ev.Result.Err, messaging.TypeDashboardFetch)
	}, EventFetchCompleted, EventFetchFailed)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(CRMPullEvent)
		e.recordFetch(&store.FetchEntry{
			Source:     store.SourceCRM,
			OrderCount: ev.OrderCount,
			StartedAt:  ev.Started,
			Duration:   ev.Duration,
		}, ev.Err, messaging.TypeCRMPull)
	}, EventCRMPulled)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(ViewerEvent)
		if evt.Type == EventViewerLoggedIn {
			e.logFn("engine: viewer %s logged in", ev.ViewerID)
		} else {
			e.logFn("engine: viewer %s logged out", ev.ViewerID)
		}
	}, EventViewerLoggedIn, EventViewerLoggedOut)
}

// recordFetch appends the fetch log and, when messaging is configured, queues
// a report. CRM pulls land here from inside a backend request, so publishing
// runs on its own goroutine. Failures here are logged, never surfaced.
func (e *Engine) recordFetch(entry *store.FetchEntry, fetchErr error, msgType string) {
	entry.Outcome = store.OutcomeOK
	if fetchErr != nil {
		entry.Outcome = store.OutcomeFailed
		entry.Error = fetchErr.Error()
	}

	if e.db != nil {
		if err := e.db.AppendFetch(entry); err != nil {
			e.logFn("engine: fetch log append: %v", err)
		}
	}

	if e.msgClient == nil || !e.msgClient.Enabled() {
		return
	}
	env := messaging.NewEnvelope(msgType, messageSource, messaging.FetchReport{
		ViewerID:   entry.ViewerID,
		OK:         fetchErr == nil,
		OrderCount: entry.OrderCount,
		Error:      entry.Error,
		DurationMS: entry.Duration.Milliseconds(),
	})
	e.publishing.Add(1)
	go func() {
		defer e.publishing.Done()
		if err := e.msgClient.PublishEnvelope(e.cfg.Messaging.FetchTopic, env); err != nil {
			e.logFn("engine: publish %s: %v", msgType, err)
		}
	}()
}
