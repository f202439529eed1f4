package tui

import (
	"fmt"

	"github.com/entrhq/punch/pkg/attendance"
	"github.com/entrhq/punch/pkg/types"
)

// handleJobEvent updates the status line from the run event stream.
func (m *model) handleJobEvent(event *types.JobEvent) {
	if event == nil {
		return
	}

	switch event.Type {
	case types.EventTypeRunStart:
		m.runID = event.RunID
		m.status = "opening window"

	case types.EventTypeSessionOpen:
		m.status = "window ready"

	case types.EventTypeDelay:
		m.status = fmt.Sprintf("%s: waiting %v", event.Date, event.Metadata["delay"])

	case types.EventTypePhase:
		m.status = fmt.Sprintf("%s: %s", event.Date, event.Phase)

	case types.EventTypeStateObserved:
		m.status = fmt.Sprintf("%s: %s", event.Date, attendance.JobState(event.State))

	case types.EventTypePunchSubmitted:
		m.status = fmt.Sprintf("%s: %s at %v", event.Date, event.Punch, event.Metadata["time"])

	case types.EventTypeSessionClose:
		if event.Error != nil {
			m.logger.Warnf("window %v did not close cleanly: %v", event.Metadata["window_id"], event.Error)
		}

	case types.EventTypeDateFailed:
		m.logger.Warnf("%s failed: %v", event.Date, event.Error)
	}
}
