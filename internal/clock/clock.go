// Package clock поставляет текущую дату для расчётов сроков.
package clock

import "time"

// Clock возвращает текущий момент времени.
type Clock interface {
	Now() time.Time
}

// Real читает системные часы.
type Real struct{}

// Now возвращает текущее системное время.
func (Real) Now() time.Time {
	return time.Now()
}

// Today возвращает календарную дату часов c без времени суток.
func Today(c Clock) time.Time {
	return Date(c.Now())
}

// Date отбрасывает время суток и приводит дату к полуночи UTC.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween возвращает число календарных дней от from до to (отрицательное, если to раньше).
func DaysBetween(from, to time.Time) int {
	return int(Date(to).Sub(Date(from)).Hours() / 24)
}
