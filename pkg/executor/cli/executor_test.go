package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/entrhq/punch/pkg/attendance"
	"github.com/entrhq/punch/pkg/types"
)

func TestExecutor_Observe(t *testing.T) {
	tests := []struct {
		name  string
		opts  []ExecutorOption
		event *types.JobEvent
		want  string
	}{
		{
			name:  "run start",
			event: types.NewRunStartEvent("run-1", 3),
			want:  "▶ Run run-1: 3 dates\n",
		},
		{
			name:  "date filed",
			event: types.NewDateDoneEvent("run-1", "2024-03-05", 0, int(attendance.Unmarked), int(attendance.Complete)),
			want:  "  ✅ 2024-03-05 unmarked → complete 打刻修正申請済み\n",
		},
		{
			name:  "date failed",
			event: types.NewDateFailedEvent("run-1", "2024-03-06", 1, -1, errors.New("stream starved")),
			want:  "  ❌ 2024-03-06: stream starved\n",
		},
		{
			name:  "punch submitted",
			event: types.NewPunchSubmittedEvent("run-1", "2024-03-05", 0, "clock-in", "0930"),
			want:  "  🕘 2024-03-05 clock-in at 0930\n",
		},
		{
			name:  "run end with failures",
			event: types.NewRunEndEvent("run-1", 1),
			want:  "■ Run run-1 finished, 1 failed\n\n",
		},
		{
			name:  "run end",
			event: types.NewRunEndEvent("run-1", 0),
			want:  "■ Run run-1 finished\n\n",
		},
		{
			name:  "phases hidden by default",
			event: types.NewPhaseEvent("run-1", "2024-03-05", 0, "awaiting-summary"),
			want:  "",
		},
		{
			name:  "phases shown",
			opts:  []ExecutorOption{WithShowPhases(true)},
			event: types.NewPhaseEvent("run-1", "2024-03-05", 0, "awaiting-summary"),
			want:  "  · 2024-03-05 awaiting-summary\n",
		},
		{
			name:  "captures shown",
			opts:  []ExecutorOption{WithShowCaptures(true)},
			event: types.NewResponseCapturedEvent("run-1", "summary", "42.1", "https://ssl.jobcan.jp/employee/adit/modify"),
			want:  "    ↳ summary https://ssl.jobcan.jp/employee/adit/modify\n",
		},
		{
			name:  "clean window close is quiet",
			event: types.NewSessionCloseEvent("run-1", "w1", nil),
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			e := NewExecutor(append(tt.opts, WithWriter(&buf))...)
			e.Observe(tt.event)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestExecutor_Run(t *testing.T) {
	var buf bytes.Buffer
	e := NewExecutor(WithWriter(&buf))

	ctx, cancel := context.WithCancel(context.Background())
	err := e.Run(ctx, "http://127.0.0.1:8787", func(ctx context.Context) error {
		e.Observe(types.NewRunStartEvent("run-1", 1))
		cancel()
		<-ctx.Done()
		return ctx.Err()
	})

	assert.NoError(t, err, "a cancelled context is a regular stop")
	out := buf.String()
	assert.Contains(t, out, "bridge on http://127.0.0.1:8787")
	assert.Contains(t, out, "▶ Run run-1: 1 dates")
	assert.Contains(t, out, "Shutting down...")
}

func TestExecutor_RunPropagatesServeError(t *testing.T) {
	e := NewExecutor(WithWriter(&bytes.Buffer{}))
	boom := errors.New("address already in use")

	err := e.Run(context.Background(), "127.0.0.1:8787", func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
}
