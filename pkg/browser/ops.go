package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/entrhq/punch/pkg/logging"
)

// Operation is one entry of the remote operation catalog. The set is
// closed: only types in this package implement it.
type Operation interface {
	// Name identifies the operation in logs and errors.
	Name() string

	script() (string, error)
}

// Navigate sends the document to URL. The navigation starts after the
// script returns so the evaluation itself never races the unload.
type Navigate struct {
	URL string
}

// SelectOption selects the option of the <select> matched by Selector
// whose label is Label, then fires a change event.
type SelectOption struct {
	Selector string
	Label    string
}

// SetField sets the value of the input matched by Selector.
type SetField struct {
	Selector string
	Value    string
}

// Click clicks the element matched by Selector.
type Click struct {
	Selector string
}

// ScanTable returns the outer HTML of the element matched by Selector, or
// an empty string when nothing matches.
type ScanTable struct {
	Selector string
}

// CheckedLinks returns Attribute of every checked checkbox matched by
// Selector, in document order.
type CheckedLinks struct {
	Selector  string
	Attribute string
}

// InjectDatePickers prepends a checkbox cell to every row matched by
// RowSelector. Rows whose first cell holds a link get a checkbox carrying
// that link in Attribute. Rows that already have one are left alone.
// Returns the number of rows changed.
type InjectDatePickers struct {
	RowSelector string
	Attribute   string
}

// SetTitle sets the document title. Used to label the control page.
type SetTitle struct {
	Title string
}

func (Navigate) Name() string          { return "navigate" }
func (SelectOption) Name() string      { return "select_option" }
func (SetField) Name() string          { return "set_field" }
func (Click) Name() string             { return "click" }
func (ScanTable) Name() string         { return "scan_table" }
func (CheckedLinks) Name() string      { return "checked_links" }
func (InjectDatePickers) Name() string { return "inject_date_pickers" }
func (SetTitle) Name() string          { return "set_title" }

func (op Navigate) script() (string, error) {
	if op.URL == "" {
		return "", fmt.Errorf("url is required")
	}
	return call(`function(u) {
	setTimeout(function() { window.location.href = u; }, 0);
	return true;
}`, op.URL)
}

func (op SelectOption) script() (string, error) {
	if op.Selector == "" || op.Label == "" {
		return "", fmt.Errorf("selector and label are required")
	}
	return call(`function(sel, label) {
	var opts = Array.from(document.querySelectorAll(sel + ' > option'));
	var opt = opts.find(function(v) { return v.label.trim() === label; });
	if (!opt) { throw new Error('no option ' + label + ' in ' + sel); }
	opt.selected = true;
	opt.parentElement.dispatchEvent(new Event('change', { bubbles: true }));
	return opt.value;
}`, op.Selector, op.Label)
}

func (op SetField) script() (string, error) {
	if op.Selector == "" {
		return "", fmt.Errorf("selector is required")
	}
	return call(`function(sel, value) {
	var el = document.querySelector(sel);
	if (!el) { throw new Error('no element ' + sel); }
	el.value = value;
	el.dispatchEvent(new Event('input', { bubbles: true }));
	el.dispatchEvent(new Event('change', { bubbles: true }));
	return true;
}`, op.Selector, op.Value)
}

func (op Click) script() (string, error) {
	if op.Selector == "" {
		return "", fmt.Errorf("selector is required")
	}
	return call(`function(sel) {
	var el = document.querySelector(sel);
	if (!el) { throw new Error('no element ' + sel); }
	el.click();
	return true;
}`, op.Selector)
}

func (op ScanTable) script() (string, error) {
	if op.Selector == "" {
		return "", fmt.Errorf("selector is required")
	}
	return call(`function(sel) {
	var el = document.querySelector(sel);
	return el ? el.outerHTML : '';
}`, op.Selector)
}

func (op CheckedLinks) script() (string, error) {
	if op.Selector == "" || op.Attribute == "" {
		return "", fmt.Errorf("selector and attribute are required")
	}
	return call(`function(sel, attr) {
	return Array.from(document.querySelectorAll(sel))
		.filter(function(v) { return v.checked; })
		.map(function(v) { return v.getAttribute(attr); })
		.filter(function(v) { return v; });
}`, op.Selector, op.Attribute)
}

func (op InjectDatePickers) script() (string, error) {
	if op.RowSelector == "" || op.Attribute == "" {
		return "", fmt.Errorf("row selector and attribute are required")
	}
	return call(`function(sel, attr) {
	var changed = 0;
	Array.from(document.querySelectorAll(sel)).forEach(function(row) {
		if (row.querySelector('td[data-punch-picker]')) { return; }
		var cell = document.createElement('td');
		cell.setAttribute('data-punch-picker', '');
		var first = row.firstElementChild;
		if (first && first.firstElementChild !== null) {
			var box = document.createElement('input');
			box.setAttribute('type', 'checkbox');
			box.setAttribute(attr, first.firstElementChild.getAttribute('href'));
			cell.appendChild(box);
		}
		row.insertBefore(cell, row.children[0]);
		changed++;
	});
	return changed;
}`, op.RowSelector, op.Attribute)
}

func (op SetTitle) script() (string, error) {
	return call(`function(title) {
	document.title = title;
	return true;
}`, op.Title)
}

// call renders an immediately invoked function with JSON-encoded arguments.
func call(fn string, args ...any) (string, error) {
	encoded := make([]string, len(args))
	for i, arg := range args {
		data, err := json.Marshal(arg)
		if err != nil {
			return "", fmt.Errorf("failed to encode argument %d: %w", i, err)
		}
		encoded[i] = string(data)
	}
	return fmt.Sprintf("(%s)(%s)", fn, strings.Join(encoded, ", ")), nil
}

// Result is the canonical value an operation produced.
type Result struct {
	Value any
}

// Text returns the value as a string.
func (r Result) Text() (string, error) {
	switch v := r.Value.(type) {
	case string:
		return v, nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("expected string result, got %T", r.Value)
	}
}

// Strings returns the value as a list of strings.
func (r Result) Strings() ([]string, error) {
	switch v := r.Value.(type) {
	case nil:
		return nil, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string at index %d, got %T", i, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected list result, got %T", r.Value)
	}
}

// Int returns the value as an int.
func (r Result) Int() (int, error) {
	switch v := r.Value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("expected number result, got %T", r.Value)
	}
}

// Evaluator runs script text in a document. Window satisfies it.
type Evaluator interface {
	Evaluate(ctx context.Context, script string) (any, error)
}

// Executor runs catalog operations against one document.
type Executor struct {
	target Evaluator
	logger *logging.Logger
}

// NewExecutor creates an executor bound to target.
func NewExecutor(target Evaluator, logger *logging.Logger) *Executor {
	return &Executor{target: target, logger: logger}
}

// Execute runs op and returns its value. There are no retries: callers
// sequence operations after waiting for the page to be ready.
func (e *Executor) Execute(ctx context.Context, op Operation) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	script, err := op.script()
	if err != nil {
		return Result{}, fmt.Errorf("invalid %s operation: %w", op.Name(), err)
	}

	e.logger.Debugf("execute %s", op.Name())
	value, err := e.target.Evaluate(ctx, script)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", op.Name(), err)
	}
	return Result{Value: value}, nil
}
