package attendance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateFromFlags(t *testing.T) {
	assert.Equal(t, Unmarked, StateFromFlags(false, false))
	assert.Equal(t, ClockedInOnly, StateFromFlags(true, false))
	assert.Equal(t, ClockedOutOnly, StateFromFlags(false, true))
	assert.Equal(t, Complete, StateFromFlags(true, true))
}

func TestJobState_Flags(t *testing.T) {
	assert.True(t, Complete.HasClockIn())
	assert.True(t, Complete.HasClockOut())
	assert.False(t, Unmarked.HasClockIn())
	assert.False(t, Unknown.HasClockIn())
	assert.False(t, Unknown.Valid())
	assert.False(t, JobState(4).Valid())
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name  string
		state JobState
		next  JobState
		want  string
	}{
		{"unprocessed", Unknown, Unknown, ""},
		{"filed by batch", Unmarked, Complete, LabelCorrectionFiled},
		{"single punch on unmarked", Unmarked, ClockedInOnly, LabelUndefined},
		{"normal", Complete, Complete, LabelNormal},
		{"forgot clock-out", ClockedInOnly, ClockedInOnly, LabelMissingClockOut},
		{"forgot clock-in", ClockedOutOnly, ClockedOutOnly, LabelMissingClockIn},
		{"failed date", Unmarked, Unknown, LabelUndefined},
		{"failed before scan", Unknown, Complete, LabelUndefined},
		{"out of range", JobState(4), JobState(4), LabelUndefined},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Describe(tt.state, tt.next))
		})
	}
}
