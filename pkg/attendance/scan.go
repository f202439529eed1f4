package attendance

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Row labels in the first column of the daily log table.
const (
	RowClockIn  = "出勤"
	RowClockOut = "退勤"
)

// LogTableID is the element id of the daily punch log container.
const LogTableID = "logs-table"

// ParseLogTable derives the JobState of a day from the HTML of the log
// table container (the element with id "logs-table", outer HTML).
//
// An empty first wrapper means nothing has been punched yet. Otherwise
// the first cell of each row of every wrapper is compared against the
// clock-in and clock-out labels.
func ParseLogTable(fragment string) (JobState, error) {
	if strings.TrimSpace(fragment) == "" {
		return Unknown, fmt.Errorf("%w: empty log table markup", ErrMalformedState)
	}

	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return Unknown, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}

	container := findByID(doc, LogTableID)
	if container == nil {
		return Unknown, fmt.Errorf("%w: #%s not found", ErrMalformedState, LogTableID)
	}

	wrapper := firstElementChild(container, atom.Div)
	if wrapper == nil {
		return Unknown, fmt.Errorf("%w: #%s has no wrapper", ErrMalformedState, LogTableID)
	}
	if firstElementChild(wrapper, 0) == nil {
		return Unmarked, nil
	}

	var clockedIn, clockedOut bool
	for _, div := range elementChildren(container, atom.Div) {
		for _, table := range elementChildren(div, atom.Table) {
			for _, section := range elementChildren(table, atom.Tbody) {
				for _, row := range elementChildren(section, atom.Tr) {
					cell := firstElementChild(row, 0)
					if cell == nil {
						continue
					}
					switch strings.TrimSpace(textContent(cell)) {
					case RowClockIn:
						clockedIn = true
					case RowClockOut:
						clockedOut = true
					}
				}
			}
		}
	}

	return StateFromFlags(clockedIn, clockedOut), nil
}

func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Key == "id" && a.Val == id {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

// firstElementChild returns the first element child of n, restricted to
// tag a unless a is zero.
func firstElementChild(n *html.Node, a atom.Atom) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (a == 0 || c.DataAtom == a) {
			return c
		}
	}
	return nil
}

func elementChildren(n *html.Node, a atom.Atom) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a {
			out = append(out, c)
		}
	}
	return out
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
