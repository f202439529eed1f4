package attendance

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Day is a calendar date as exchanged with companion surfaces.
type Day struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Date  int `json:"date"`
}

// DayOf returns the Day of t in t's location.
func DayOf(t time.Time) Day {
	return Day{Year: t.Year(), Month: int(t.Month()), Date: t.Day()}
}

// ParseDay parses YYYY-MM-DD.
func ParseDay(s string) (Day, error) {
	t, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(s), time.Local)
	if err != nil {
		return Day{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DayOf(t), nil
}

// Time returns local midnight of the day.
func (d Day) Time() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Date, 0, 0, 0, 0, time.Local)
}

// Valid reports whether the fields describe a real calendar date.
func (d Day) Valid() bool {
	if d.Year < 1 || d.Month < 1 || d.Month > 12 || d.Date < 1 {
		return false
	}
	return DayOf(d.Time()) == d
}

// Weekend reports whether the day is a Saturday or Sunday.
func (d Day) Weekend() bool {
	wd := d.Time().Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func (d Day) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Date)
}

// DateRecord is a day tied to its position in a caller-supplied list,
// plus the before/after states once processed.
type DateRecord struct {
	Day   `mapstructure:",squash"`
	Index int      `json:"index"`
	State JobState `json:"state"`
	Next  JobState `json:"next"`
}

// Pending returns an unprocessed record for d at position index.
func Pending(d Day, index int) DateRecord {
	return DateRecord{Day: d, Index: index, State: Unknown, Next: Unknown}
}

// Label renders the record's state pair.
func (r DateRecord) Label() string {
	return Describe(r.State, r.Next)
}

// ResultLabel renders the record as reported after processing: a date
// that failed is always LabelUndefined, whatever states it got to.
func (r DateRecord) ResultLabel(err error) string {
	if err != nil {
		return LabelUndefined
	}
	return r.Label()
}

// ModifyPath is the portal path of the per-day edit page.
const ModifyPath = "/employee/adit/modify"

// DeepLink builds the edit page URL of d under base.
func DeepLink(base string, d Day) string {
	q := url.Values{}
	q.Set("year", strconv.Itoa(d.Year))
	q.Set("month", strconv.Itoa(d.Month))
	q.Set("day", strconv.Itoa(d.Date))
	return strings.TrimRight(base, "/") + ModifyPath + "?" + q.Encode()
}

// ResolveLink makes href (as found on the attendance list) absolute
// against base.
func ResolveLink(base, href string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", base, err)
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", fmt.Errorf("invalid link %q: %w", href, err)
	}
	return b.ResolveReference(ref).String(), nil
}

// DayFromLink extracts the day encoded in an edit page link.
func DayFromLink(link string) (Day, error) {
	u, err := url.Parse(link)
	if err != nil {
		return Day{}, fmt.Errorf("invalid link %q: %w", link, err)
	}
	q := u.Query()
	var d Day
	for key, dst := range map[string]*int{"year": &d.Year, "month": &d.Month, "day": &d.Date} {
		v, err := strconv.Atoi(q.Get(key))
		if err != nil {
			return Day{}, fmt.Errorf("link %q has no %s", link, key)
		}
		*dst = v
	}
	if !d.Valid() {
		return Day{}, fmt.Errorf("link %q encodes an invalid date", link)
	}
	return d, nil
}
