package browser

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEvaluator struct {
	scripts []string
	value   any
	err     error
}

func (f *fakeEvaluator) Evaluate(ctx context.Context, script string) (any, error) {
	f.scripts = append(f.scripts, script)
	return f.value, f.err
}

func TestOperations_Scripts(t *testing.T) {
	tests := []struct {
		name     string
		op       Operation
		contains []string
	}{
		{
			name:     "navigate",
			op:       Navigate{URL: "https://ssl.jobcan.jp/employee/adit/modify?year=2024&month=3&day=5"},
			contains: []string{"window.location.href", `"https://ssl.jobcan.jp/employee/adit/modify?year=2024&month=3&day=5"`},
		},
		{
			name:     "select option",
			op:       SelectOption{Selector: "#adit_item_change > select", Label: "出勤"},
			contains: []string{`"#adit_item_change > select"`, `"出勤"`, "dispatchEvent"},
		},
		{
			name:     "set field",
			op:       SetField{Selector: "#ter_time", Value: "0930"},
			contains: []string{`"#ter_time"`, `"0930"`, "el.value = value"},
		},
		{
			name:     "click",
			op:       Click{Selector: "#insert_button"},
			contains: []string{`"#insert_button"`, "el.click()"},
		},
		{
			name:     "scan table",
			op:       ScanTable{Selector: "#logs-table"},
			contains: []string{`"#logs-table"`, "outerHTML"},
		},
		{
			name:     "checked links",
			op:       CheckedLinks{Selector: "input[type=checkbox]", Attribute: "data-href"},
			contains: []string{`"data-href"`, "v.checked"},
		},
		{
			name:     "inject date pickers",
			op:       InjectDatePickers{RowSelector: "#search-result > table > tbody > tr", Attribute: "data-href"},
			contains: []string{"insertBefore", "data-punch-picker"},
		},
		{
			name:     "set title",
			op:       SetTitle{Title: "punch"},
			contains: []string{"document.title", `"punch"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script, err := tt.op.script()
			require.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, script, s)
			}
		})
	}
}

func TestOperations_ArgumentsAreEncoded(t *testing.T) {
	script, err := SetField{Selector: "#ter_time", Value: `'); alert("x"); ('`}.script()
	require.NoError(t, err)

	assert.Contains(t, script, `"'); alert(\"x\"); ('"`)
	assert.NotContains(t, script, `alert("x")`)
}

func TestOperations_Validation(t *testing.T) {
	tests := []struct {
		name string
		op   Operation
	}{
		{"navigate without url", Navigate{}},
		{"select without label", SelectOption{Selector: "select"}},
		{"set field without selector", SetField{Value: "1"}},
		{"click without selector", Click{}},
		{"scan without selector", ScanTable{}},
		{"checked links without attribute", CheckedLinks{Selector: "input"}},
		{"inject without rows", InjectDatePickers{Attribute: "data-href"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := &fakeEvaluator{}
			_, err := NewExecutor(target, nil).Execute(context.Background(), tt.op)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid "+tt.op.Name())
			assert.Empty(t, target.scripts, "nothing should reach the page")
		})
	}
}

func TestExecutor_Execute(t *testing.T) {
	target := &fakeEvaluator{value: "<div id=\"logs-table\"></div>"}
	exec := NewExecutor(target, nil)

	res, err := exec.Execute(context.Background(), ScanTable{Selector: "#logs-table"})
	require.NoError(t, err)
	require.Len(t, target.scripts, 1)

	html, err := res.Text()
	require.NoError(t, err)
	assert.Equal(t, `<div id="logs-table"></div>`, html)
}

func TestExecutor_WrapsErrors(t *testing.T) {
	target := &fakeEvaluator{err: errors.Join(ErrScriptExecution, errors.New("no element #insert_button"))}
	_, err := NewExecutor(target, nil).Execute(context.Background(), Click{Selector: "#insert_button"})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrScriptExecution)
	assert.Contains(t, err.Error(), "click")
}

func TestExecutor_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	target := &fakeEvaluator{}
	_, err := NewExecutor(target, nil).Execute(ctx, Click{Selector: "#x"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, target.scripts)
}

func TestResult_Accessors(t *testing.T) {
	links, err := Result{Value: []any{"/a", "/b"}}.Strings()
	require.NoError(t, err)
	assert.Equal(t, []string{"/a", "/b"}, links)

	_, err = Result{Value: []any{"/a", 3.0}}.Strings()
	assert.Error(t, err)

	n, err := Result{Value: 12.0}.Int()
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	_, err = Result{Value: "12"}.Int()
	assert.Error(t, err)

	s, err := Result{}.Text()
	require.NoError(t, err)
	assert.Empty(t, s)
}
