package trigger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/punch/pkg/attendance"
	"github.com/entrhq/punch/pkg/browser"
)

type MockPage struct {
	mock.Mock
}

func (m *MockPage) Execute(ctx context.Context, op browser.Operation) (browser.Result, error) {
	args := m.Called(ctx, op)
	return args.Get(0).(browser.Result), args.Error(1)
}

func TestMenu_Matches(t *testing.T) {
	m, err := NewMenu()
	require.NoError(t, err)

	tests := []struct {
		url  string
		want bool
	}{
		{"https://ssl.jobcan.jp/employee/attendance", true},
		{"https://ssl.jobcan.jp/employee/attendance?list_type=normal&search_type=month&year=2024&month=3", true},
		{"https://ssl.jobcan.jp/employee/adit/modify?year=2024&month=3&day=5", false},
		{"http://ssl.jobcan.jp/employee/attendance", false},
		{"https://example.com/employee/attendance", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Matches(tt.url))
		})
	}
}

func TestNewMenu_CustomPatterns(t *testing.T) {
	m, err := NewMenu("http://127.0.0.1:*/employee/attendance*", DocumentPattern)
	require.NoError(t, err)
	assert.True(t, m.Matches("http://127.0.0.1:8080/employee/attendance"))
	assert.True(t, m.Matches("https://ssl.jobcan.jp/employee/attendance"))
	assert.False(t, m.Matches("http://127.0.0.1:8080/employee"))
}

func TestMenu_Lookup(t *testing.T) {
	m, err := NewMenu()
	require.NoError(t, err)

	tests := []struct {
		id    string
		punch attendance.Punch
		title string
	}{
		{CommandAttendance, attendance.ClockIn, "定時出勤"},
		{CommandLeave, attendance.ClockOut, "定時退勤"},
		{"attendance", attendance.ClockIn, "定時出勤"},
		{"leave", attendance.ClockOut, "定時退勤"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			cmd, err := m.Lookup(tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.punch, cmd.Punch)
			assert.Equal(t, tt.title, cmd.Title)
		})
	}

	_, err = m.Lookup("JobcanAutomator@lunch")
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

func TestDecorate(t *testing.T) {
	page := &MockPage{}
	page.On("Execute", mock.Anything, browser.InjectDatePickers{RowSelector: RowSelector, Attribute: LinkAttribute}).
		Return(browser.Result{Value: float64(31)}, nil).Once()

	n, err := Decorate(context.Background(), page)
	require.NoError(t, err)
	assert.Equal(t, 31, n)
	page.AssertExpectations(t)
}

func TestDecorate_Failure(t *testing.T) {
	page := &MockPage{}
	page.On("Execute", mock.Anything, mock.Anything).
		Return(browser.Result{}, browser.ErrTargetUnavailable).Once()

	_, err := Decorate(context.Background(), page)
	require.Error(t, err)
	assert.ErrorIs(t, err, browser.ErrTargetUnavailable)
}

func TestMenu_Invoke(t *testing.T) {
	m, err := NewMenu()
	require.NoError(t, err)
	listURL := "https://ssl.jobcan.jp/employee/attendance"
	checked := browser.CheckedLinks{Selector: PickerSelector, Attribute: LinkAttribute}

	t.Run("collects checked rows", func(t *testing.T) {
		page := &MockPage{}
		page.On("Execute", mock.Anything, checked).Return(browser.Result{Value: []any{
			"/employee/adit/modify?year=2024&month=3&day=4",
			"/employee/adit/modify?year=2024&month=3&day=5",
		}}, nil).Once()

		inv, err := m.Invoke(context.Background(), CommandLeave, listURL, page)
		require.NoError(t, err)
		assert.Equal(t, attendance.ClockOut, inv.Punch)
		assert.Equal(t, []string{
			"/employee/adit/modify?year=2024&month=3&day=4",
			"/employee/adit/modify?year=2024&month=3&day=5",
		}, inv.Links)
		page.AssertExpectations(t)
	})

	t.Run("nothing checked", func(t *testing.T) {
		page := &MockPage{}
		page.On("Execute", mock.Anything, checked).Return(browser.Result{Value: []any{}}, nil).Once()

		_, err := m.Invoke(context.Background(), CommandAttendance, listURL, page)
		assert.ErrorIs(t, err, ErrNothingSelected)
	})

	t.Run("out of scope document", func(t *testing.T) {
		page := &MockPage{}
		_, err := m.Invoke(context.Background(), CommandAttendance, "https://ssl.jobcan.jp/employee", page)
		assert.ErrorIs(t, err, ErrOutOfScope)
		page.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
	})

	t.Run("collect failure", func(t *testing.T) {
		page := &MockPage{}
		page.On("Execute", mock.Anything, checked).Return(browser.Result{}, errors.New("boom")).Once()

		_, err := m.Invoke(context.Background(), CommandAttendance, listURL, page)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to collect checked dates")
	})
}
