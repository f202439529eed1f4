package types

// JobEventType defines the type of event emitted while a run is in progress.
type JobEventType string

const (
	EventTypeRunStart        JobEventType = "run_start"         // EventTypeRunStart indicates a batch or punch run has started.
	EventTypeRunEnd          JobEventType = "run_end"           // EventTypeRunEnd indicates every date of the run has been reported.
	EventTypeSessionOpen     JobEventType = "session_open"      // EventTypeSessionOpen indicates a controlled window was opened and attached.
	EventTypeSessionClose    JobEventType = "session_close"     // EventTypeSessionClose indicates the session was detached and its window closed.
	EventTypeDelay           JobEventType = "delay"             // EventTypeDelay indicates the orchestrator is pausing before the next date.
	EventTypePhase           JobEventType = "phase"             // EventTypePhase indicates a per-date state machine transition.
	EventTypeStateObserved   JobEventType = "state_observed"    // EventTypeStateObserved indicates the log table was scanned.
	EventTypePunchSubmitted  JobEventType = "punch_submitted"   // EventTypePunchSubmitted indicates a clock-in/out form was submitted.
	EventTypePunchCommitted  JobEventType = "punch_committed"   // EventTypePunchCommitted indicates the portal acknowledged a submitted punch.
	EventTypeDateDone        JobEventType = "date_done"         // EventTypeDateDone indicates a date finished with a before/after state pair.
	EventTypeDateFailed      JobEventType = "date_failed"       // EventTypeDateFailed indicates a date was aborted.
	EventTypeResponseCapture JobEventType = "response_captured" // EventTypeResponseCapture indicates a routed response record was observed.
)

// JobEvent represents an event emitted by the orchestrator during a run.
type JobEvent struct {
	// Metadata holds optional additional information about the event.
	Metadata map[string]interface{}

	// Error contains error information for failure events.
	Error error

	// RunID identifies the run the event belongs to.
	RunID string

	// Date is the ISO date (YYYY-MM-DD) being processed, if any.
	Date string

	// Phase is the per-date state machine phase (for phase events).
	Phase string

	// Punch is the punch kind being submitted (for punch events).
	Punch string

	// Type indicates the kind of event.
	Type JobEventType

	// Index ties the event to the caller-supplied date position.
	Index int

	// State and Next carry the job state codes before and after processing.
	State int
	Next  int
}

// EventEmitter receives events as they are produced.
type EventEmitter func(*JobEvent)

// IsError reports whether the event describes a failure.
func (e *JobEvent) IsError() bool {
	return e.Type == EventTypeDateFailed || e.Error != nil
}

// NewRunStartEvent creates a run start event.
func NewRunStartEvent(runID string, dates int) *JobEvent {
	return &JobEvent{
		Type:     EventTypeRunStart,
		RunID:    runID,
		Metadata: map[string]interface{}{"dates": dates},
	}
}

// NewRunEndEvent creates a run end event.
func NewRunEndEvent(runID string, failed int) *JobEvent {
	return &JobEvent{
		Type:     EventTypeRunEnd,
		RunID:    runID,
		Metadata: map[string]interface{}{"failed": failed},
	}
}

// NewSessionOpenEvent creates a session open event.
func NewSessionOpenEvent(runID, windowID string) *JobEvent {
	return &JobEvent{
		Type:     EventTypeSessionOpen,
		RunID:    runID,
		Metadata: map[string]interface{}{"window_id": windowID},
	}
}

// NewSessionCloseEvent creates a session close event.
func NewSessionCloseEvent(runID, windowID string, err error) *JobEvent {
	return &JobEvent{
		Type:     EventTypeSessionClose,
		RunID:    runID,
		Error:    err,
		Metadata: map[string]interface{}{"window_id": windowID},
	}
}

// NewDelayEvent creates a delay event.
func NewDelayEvent(runID, date string, index int, delay string) *JobEvent {
	return &JobEvent{
		Type:     EventTypeDelay,
		RunID:    runID,
		Date:     date,
		Index:    index,
		Metadata: map[string]interface{}{"delay": delay},
	}
}

// NewPhaseEvent creates a phase transition event.
func NewPhaseEvent(runID, date string, index int, phase string) *JobEvent {
	return &JobEvent{
		Type:     EventTypePhase,
		RunID:    runID,
		Date:     date,
		Index:    index,
		Phase:    phase,
		Metadata: make(map[string]interface{}),
	}
}

// NewStateObservedEvent creates a state observed event.
func NewStateObservedEvent(runID, date string, index, state int) *JobEvent {
	return &JobEvent{
		Type:     EventTypeStateObserved,
		RunID:    runID,
		Date:     date,
		Index:    index,
		State:    state,
		Next:     state,
		Metadata: make(map[string]interface{}),
	}
}

// NewPunchSubmittedEvent creates a punch submitted event.
func NewPunchSubmittedEvent(runID, date string, index int, punch, at string) *JobEvent {
	return &JobEvent{
		Type:     EventTypePunchSubmitted,
		RunID:    runID,
		Date:     date,
		Index:    index,
		Punch:    punch,
		Metadata: map[string]interface{}{"time": at},
	}
}

// NewPunchCommittedEvent creates a punch committed event.
func NewPunchCommittedEvent(runID, date string, index int, punch, transportID string) *JobEvent {
	return &JobEvent{
		Type:     EventTypePunchCommitted,
		RunID:    runID,
		Date:     date,
		Index:    index,
		Punch:    punch,
		Metadata: map[string]interface{}{"transport_id": transportID},
	}
}

// NewDateDoneEvent creates a date done event.
func NewDateDoneEvent(runID, date string, index, state, next int) *JobEvent {
	return &JobEvent{
		Type:     EventTypeDateDone,
		RunID:    runID,
		Date:     date,
		Index:    index,
		State:    state,
		Next:     next,
		Metadata: make(map[string]interface{}),
	}
}

// NewDateFailedEvent creates a date failed event.
func NewDateFailedEvent(runID, date string, index, state int, err error) *JobEvent {
	return &JobEvent{
		Type:     EventTypeDateFailed,
		RunID:    runID,
		Date:     date,
		Index:    index,
		State:    state,
		Next:     -1,
		Error:    err,
		Metadata: make(map[string]interface{}),
	}
}

// NewResponseCapturedEvent creates a response captured event.
func NewResponseCapturedEvent(runID, stream, transportID, url string) *JobEvent {
	return &JobEvent{
		Type:  EventTypeResponseCapture,
		RunID: runID,
		Metadata: map[string]interface{}{
			"stream":       stream,
			"transport_id": transportID,
			"url":          url,
		},
	}
}
