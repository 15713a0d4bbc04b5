// Package date handles calendar dates exchanged as "YYYY-MM-DD".
package date

import (
	"encoding/json"
	"fmt"
	"time"
)

const Layout = "2006-01-02"

// Of truncates t to midnight UTC of its own calendar day.
func Of(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Parse reads a "YYYY-MM-DD" string.
func Parse(s string) (time.Time, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// Date is a JSON-friendly calendar date. The zero value means "not provided".
type Date struct {
	time.Time
}

// New wraps t as a Date truncated to its calendar day.
func New(t time.Time) Date {
	return Date{Of(t)}
}

// Ptr returns a *Date for t, or nil when t is nil.
func Ptr(t *time.Time) *Date {
	if t == nil {
		return nil
	}
	d := New(*t)
	return &d
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(Layout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(Layout))
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		d.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := Parse(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// OrToday returns d as a time, or today's date from now() when d is zero.
func (d Date) OrToday(now func() time.Time) time.Time {
	if d.IsZero() {
		return Of(now())
	}
	return Of(d.Time)
}
