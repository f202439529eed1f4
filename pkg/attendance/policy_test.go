package attendance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecide_Batch(t *testing.T) {
	tests := []struct {
		state       JobState
		wantPunches []Punch
		wantNext    JobState
	}{
		{Unmarked, []Punch{ClockIn, ClockOut}, Complete},
		{ClockedInOnly, nil, ClockedInOnly},
		{ClockedOutOnly, nil, ClockedOutOnly},
		{Complete, nil, Complete},
		{Unknown, nil, Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			plan := Decide(ModeBatch, tt.state)
			assert.Equal(t, tt.wantPunches, plan.Punches)
			assert.Equal(t, tt.wantNext, plan.Next)
			assert.Equal(t, len(tt.wantPunches) == 0, plan.Noop())
		})
	}
}

func TestDecide_ClockIn(t *testing.T) {
	tests := []struct {
		state    JobState
		act      bool
		wantNext JobState
	}{
		{Unmarked, true, ClockedInOnly},
		{ClockedOutOnly, true, Complete},
		{ClockedInOnly, false, ClockedInOnly},
		{Complete, false, Complete},
		{Unknown, false, Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			plan := Decide(ModeClockIn, tt.state)
			assert.Equal(t, !tt.act, plan.Noop())
			if tt.act {
				assert.Equal(t, []Punch{ClockIn}, plan.Punches)
			}
			assert.Equal(t, tt.wantNext, plan.Next)
		})
	}
}

func TestDecide_ClockOut(t *testing.T) {
	tests := []struct {
		state    JobState
		act      bool
		wantNext JobState
	}{
		{Unmarked, true, ClockedOutOnly},
		{ClockedInOnly, true, Complete},
		{ClockedOutOnly, false, ClockedOutOnly},
		{Complete, false, Complete},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			plan := Decide(ModeClockOut, tt.state)
			assert.Equal(t, !tt.act, plan.Noop())
			if tt.act {
				assert.Equal(t, []Punch{ClockOut}, plan.Punches)
			}
			assert.Equal(t, tt.wantNext, plan.Next)
		})
	}
}

func TestDecide_IsPure(t *testing.T) {
	first := Decide(ModeBatch, Unmarked)
	first.Punches[0] = ClockOut

	second := Decide(ModeBatch, Unmarked)
	assert.Equal(t, []Punch{ClockIn, ClockOut}, second.Punches)
}

func TestParsePunch(t *testing.T) {
	for _, name := range []string{"clock-in", "attendance", "in"} {
		p, err := ParsePunch(name)
		require.NoError(t, err)
		assert.Equal(t, ClockIn, p)
	}
	for _, name := range []string{"clock-out", "leave", "out"} {
		p, err := ParsePunch(name)
		require.NoError(t, err)
		assert.Equal(t, ClockOut, p)
	}

	_, err := ParsePunch("lunch")
	assert.Error(t, err)
}

func TestPunchLabels(t *testing.T) {
	assert.Equal(t, "出勤", ClockIn.Label())
	assert.Equal(t, "退勤", ClockOut.Label())
	assert.Equal(t, ModeClockOut, ModeFor(ClockOut))
	assert.Equal(t, ModeClockIn, ModeFor(ClockIn))
}
