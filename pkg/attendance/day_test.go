package attendance

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDay(t *testing.T) {
	d, err := ParseDay("2024-03-05")
	require.NoError(t, err)
	assert.Equal(t, Day{Year: 2024, Month: 3, Date: 5}, d)
	assert.Equal(t, "2024-03-05", d.String())

	_, err = ParseDay("2024-02-30")
	assert.Error(t, err)
}

func TestDay_Valid(t *testing.T) {
	assert.True(t, Day{2024, 2, 29}.Valid())
	assert.False(t, Day{2023, 2, 29}.Valid())
	assert.False(t, Day{2024, 13, 1}.Valid())
	assert.False(t, Day{}.Valid())
}

func TestDay_Weekend(t *testing.T) {
	assert.True(t, Day{2024, 3, 9}.Weekend())  // Saturday
	assert.True(t, Day{2024, 3, 10}.Weekend()) // Sunday
	assert.False(t, Day{2024, 3, 11}.Weekend())
}

func TestDeepLink(t *testing.T) {
	link := DeepLink("https://ssl.jobcan.jp/", Day{2024, 3, 5})
	assert.Equal(t, "https://ssl.jobcan.jp/employee/adit/modify?day=5&month=3&year=2024", link)

	d, err := DayFromLink(link)
	require.NoError(t, err)
	assert.Equal(t, Day{2024, 3, 5}, d)
}

func TestResolveLink(t *testing.T) {
	abs, err := ResolveLink("https://ssl.jobcan.jp", "/employee/adit/modify?year=2024&month=3&day=6")
	require.NoError(t, err)
	assert.Equal(t, "https://ssl.jobcan.jp/employee/adit/modify?year=2024&month=3&day=6", abs)

	d, err := DayFromLink(abs)
	require.NoError(t, err)
	assert.Equal(t, Day{2024, 3, 6}, d)
}

func TestDayFromLink_Invalid(t *testing.T) {
	_, err := DayFromLink("https://ssl.jobcan.jp/employee/adit/modify?year=2024&month=3")
	assert.Error(t, err)

	_, err = DayFromLink("https://ssl.jobcan.jp/employee/adit/modify?year=2024&month=2&day=31")
	assert.Error(t, err)
}

func TestDateRecord_JSON(t *testing.T) {
	rec := Pending(Day{2024, 3, 5}, 7)
	rec.State = Unmarked
	rec.Next = Complete

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"year":2024,"month":3,"date":5,"index":7,"state":0,"next":3}`, string(data))
	assert.Equal(t, LabelCorrectionFiled, rec.Label())
}

func TestPending(t *testing.T) {
	rec := Pending(Day{2024, 3, 5}, 0)
	assert.Equal(t, Unknown, rec.State)
	assert.Equal(t, Unknown, rec.Next)
	assert.Equal(t, "", rec.Label())
}

func TestDateRecord_ResultLabel(t *testing.T) {
	tests := []struct {
		name  string
		state JobState
		next  JobState
		err   error
		want  string
	}{
		{"failed before scan", Unknown, Unknown, ErrMalformedState, LabelUndefined},
		{"failed after scan", ClockedInOnly, Unknown, errors.New("stream starved"), LabelUndefined},
		{"failed mid punch", Unmarked, Complete, errors.New("window closed"), LabelUndefined},
		{"filed", Unmarked, Complete, nil, LabelCorrectionFiled},
		{"not processed", Unknown, Unknown, nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Pending(Day{2024, 3, 5}, 0)
			rec.State, rec.Next = tt.state, tt.next
			assert.Equal(t, tt.want, rec.ResultLabel(tt.err))
		})
	}
}

func TestDayOf(t *testing.T) {
	assert.Equal(t, Day{2024, 12, 31}, DayOf(time.Date(2024, 12, 31, 23, 59, 0, 0, time.Local)))
}
