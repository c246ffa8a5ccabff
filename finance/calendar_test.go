package finance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func TestWindowDaysInclusive(t *testing.T) {
	assert.Equal(t, 16, Window{From: d(2024, 4, 15), To: d(2024, 4, 30)}.Days())
	assert.Equal(t, 1, Window{From: d(2024, 4, 15), To: d(2024, 4, 15)}.Days())
	assert.Equal(t, 0, Window{From: d(2024, 4, 16), To: d(2024, 4, 15)}.Days())
}

func TestBusinessDaysSkipWeekends(t *testing.T) {
	// 2024-04-01 is a Monday.
	assert.Equal(t, 5, Window{From: d(2024, 4, 1), To: d(2024, 4, 7)}.BusinessDays())
	assert.Equal(t, 0, Window{From: d(2024, 4, 6), To: d(2024, 4, 7)}.BusinessDays())
	assert.Equal(t, 22, MonthOf(d(2024, 4, 10)).BusinessDays())
}

func TestIntersectAndOpenEndedWindow(t *testing.T) {
	member := NewWindow(d(2024, 3, 20), nil)
	w, ok := Intersect(member, MonthOf(d(2024, 4, 1)))
	assert.True(t, ok)
	assert.Equal(t, d(2024, 4, 1), w.From)
	assert.Equal(t, d(2024, 4, 30), w.To)

	ended := d(2024, 3, 31)
	_, ok = Intersect(NewWindow(d(2024, 1, 1), &ended), MonthOf(d(2024, 4, 1)))
	assert.False(t, ok)
}

func TestMonthsTouchingRange(t *testing.T) {
	ms := Window{From: d(2023, 12, 15), To: d(2024, 2, 3)}.Months()
	assert.Len(t, ms, 3)
	assert.Equal(t, "2023-12", MonthKey(ms[0].From))
	assert.Equal(t, d(2024, 2, 29), ms[2].To)
}
