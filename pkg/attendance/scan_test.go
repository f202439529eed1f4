package attendance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func logTable(rows ...string) string {
	if len(rows) == 0 {
		return `<div id="logs-table"><div>
		</div></div>`
	}
	body := ""
	for _, r := range rows {
		body += "<tr><td> " + r + " </td><td>09:30</td><td>PC</td></tr>"
	}
	return `<div id="logs-table"><div><table><thead><tr><th>出勤</th></tr></thead><tbody>` + body + `</tbody></table></div></div>`
}

func TestParseLogTable(t *testing.T) {
	tests := []struct {
		name     string
		fragment string
		want     JobState
	}{
		{"empty wrapper", logTable(), Unmarked},
		{"clock-in only", logTable(RowClockIn), ClockedInOnly},
		{"clock-out only", logTable(RowClockOut), ClockedOutOnly},
		{"both", logTable(RowClockIn, RowClockOut), Complete},
		{"both reversed with extra rows", logTable("休憩", RowClockOut, RowClockIn), Complete},
		{"unrelated rows only", logTable("休憩開始", "休憩終了"), Unmarked},
		{"rows split across wrappers", `<div id="logs-table"><div><table><tbody><tr><td>出勤</td></tr></tbody></table></div><div><table><tbody><tr><td>退勤</td></tr></tbody></table></div></div>`, Complete},
		{"later wrapper only", `<div id="logs-table"><div><table><tbody><tr><td>休憩</td></tr></tbody></table></div><div><table><tbody><tr><td>退勤</td></tr></tbody></table></div></div>`, ClockedOutOnly},
		{"nested markup in cell", `<div id="logs-table"><div><table><tr><td><span>出勤</span></td></tr></table></div></div>`, ClockedInOnly},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLogTable(tt.fragment)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLogTable_Malformed(t *testing.T) {
	tests := []struct {
		name     string
		fragment string
	}{
		{"blank", "   "},
		{"missing container", `<div id="other"></div>`},
		{"no wrapper", `<div id="logs-table"></div>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLogTable(tt.fragment)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedState)
			assert.Equal(t, Unknown, got)
		})
	}
}
