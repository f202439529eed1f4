package types

import (
	"errors"
	"testing"
)

func TestJobEventType(t *testing.T) {
	tests := []struct {
		eventType JobEventType
		name      string
		expected  string
	}{
		{name: "run_start", eventType: EventTypeRunStart, expected: "run_start"},
		{name: "run_end", eventType: EventTypeRunEnd, expected: "run_end"},
		{name: "session_open", eventType: EventTypeSessionOpen, expected: "session_open"},
		{name: "session_close", eventType: EventTypeSessionClose, expected: "session_close"},
		{name: "delay", eventType: EventTypeDelay, expected: "delay"},
		{name: "phase", eventType: EventTypePhase, expected: "phase"},
		{name: "state_observed", eventType: EventTypeStateObserved, expected: "state_observed"},
		{name: "punch_submitted", eventType: EventTypePunchSubmitted, expected: "punch_submitted"},
		{name: "punch_committed", eventType: EventTypePunchCommitted, expected: "punch_committed"},
		{name: "date_done", eventType: EventTypeDateDone, expected: "date_done"},
		{name: "date_failed", eventType: EventTypeDateFailed, expected: "date_failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if string(tt.eventType) != tt.expected {
				t.Errorf("EventType = %v, want %v", tt.eventType, tt.expected)
			}
		})
	}
}

func TestNewDateEvents(t *testing.T) {
	done := NewDateDoneEvent("run-1", "2024-03-05", 4, 0, 3)
	if done.Type != EventTypeDateDone {
		t.Errorf("DateDone type = %v, want %v", done.Type, EventTypeDateDone)
	}
	if done.State != 0 || done.Next != 3 {
		t.Errorf("DateDone state/next = %d/%d, want 0/3", done.State, done.Next)
	}
	if done.IsError() {
		t.Error("DateDone should not be an error event")
	}

	failed := NewDateFailedEvent("run-1", "2024-03-06", 5, 1, errors.New("window closed"))
	if !failed.IsError() {
		t.Error("DateFailed should be an error event")
	}
	if failed.Next != -1 {
		t.Errorf("DateFailed next = %d, want -1", failed.Next)
	}
	if failed.Index != 5 {
		t.Errorf("DateFailed index = %d, want 5", failed.Index)
	}
}

func TestNewPunchEvents(t *testing.T) {
	submitted := NewPunchSubmittedEvent("run-1", "2024-03-05", 0, "clock-in", "0930")
	if submitted.Punch != "clock-in" {
		t.Errorf("PunchSubmitted punch = %v, want clock-in", submitted.Punch)
	}
	if submitted.Metadata["time"] != "0930" {
		t.Errorf("PunchSubmitted time = %v, want 0930", submitted.Metadata["time"])
	}

	committed := NewPunchCommittedEvent("run-1", "2024-03-05", 0, "clock-out", "42.7")
	if committed.Type != EventTypePunchCommitted {
		t.Errorf("PunchCommitted type = %v, want %v", committed.Type, EventTypePunchCommitted)
	}
	if committed.Metadata["transport_id"] != "42.7" {
		t.Errorf("PunchCommitted transport_id = %v, want 42.7", committed.Metadata["transport_id"])
	}
}

func TestSessionEvents(t *testing.T) {
	open := NewSessionOpenEvent("run-2", "tab-9")
	if open.Metadata["window_id"] != "tab-9" {
		t.Errorf("SessionOpen window_id = %v, want tab-9", open.Metadata["window_id"])
	}

	closeErr := errors.New("detach failed")
	closed := NewSessionCloseEvent("run-2", "tab-9", closeErr)
	if !errors.Is(closed.Error, closeErr) {
		t.Errorf("SessionClose error = %v, want %v", closed.Error, closeErr)
	}
	if !closed.IsError() {
		t.Error("SessionClose with an error should be an error event")
	}
}

func TestPhaseEvent(t *testing.T) {
	ev := NewPhaseEvent("run-3", "2024-03-07", 2, "awaiting_summary")
	if ev.Phase != "awaiting_summary" {
		t.Errorf("Phase = %v, want awaiting_summary", ev.Phase)
	}
	if ev.Metadata == nil {
		t.Error("Metadata should be initialized")
	}
}
