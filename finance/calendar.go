package finance

import "time"

// Window is an inclusive range of UTC calendar days.
type Window struct {
	From time.Time
	To   time.Time
}

var openEnd = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)

func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func NewWindow(from time.Time, to *time.Time) Window {
	w := Window{From: Day(from), To: openEnd}
	if to != nil {
		w.To = Day(*to)
	}
	return w
}

func (w Window) Empty() bool {
	return w.To.Before(w.From)
}

func (w Window) Contains(t time.Time) bool {
	d := Day(t)
	return !d.Before(w.From) && !d.After(w.To)
}

// Days counts both endpoints.
func (w Window) Days() int {
	if w.Empty() {
		return 0
	}
	return int(w.To.Sub(w.From).Hours()/24) + 1
}

// BusinessDays counts Monday to Friday. Holidays are not subtracted.
func (w Window) BusinessDays() int {
	n := 0
	for d := w.From; !d.After(w.To); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			n++
		}
	}
	return n
}

func Intersect(a, b Window) (Window, bool) {
	w := Window{From: a.From, To: a.To}
	if b.From.After(w.From) {
		w.From = b.From
	}
	if b.To.Before(w.To) {
		w.To = b.To
	}
	return w, !w.Empty()
}

func MonthOf(t time.Time) Window {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Window{From: start, To: start.AddDate(0, 1, -1)}
}

// Months returns the calendar months touching w, each as a full-month window.
func (w Window) Months() []Window {
	var out []Window
	if w.Empty() {
		return out
	}
	for m := MonthOf(w.From); !m.From.After(w.To); m = MonthOf(m.From.AddDate(0, 1, 0)) {
		out = append(out, m)
	}
	return out
}

func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}
