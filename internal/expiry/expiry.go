// Package expiry классифицирует сроки действия учётных данных и предложений.
package expiry

import (
	"time"

	"github.com/ralfiz/bizdesk/internal/clock"
)

// State описывает состояние срока действия.
type State string

const (
	StateExpired      State = "expired"
	StateExpiringSoon State = "expiring_soon"
	StateActive       State = "active"
)

// SoonWindowDays — сколько дней до окончания срока запись считается истекающей.
const SoonWindowDays = 30

// QuoteSoonWindowDays — окно предупреждения для коммерческих предложений.
const QuoteSoonWindowDays = 7

// Classification содержит результат классификации срока.
type Classification struct {
	DaysUntilExpiry int   `json:"days_until_expiry"`
	State           State `json:"state"`
}

// Classify классифицирует срок с окном SoonWindowDays. Для отсутствующей даты возвращает nil.
func Classify(expiryDate *time.Time, today time.Time) *Classification {
	return ClassifyWithin(expiryDate, today, SoonWindowDays)
}

// ClassifyWithin классифицирует срок с окном window дней включительно.
// Срок, истекающий сегодня, ещё не считается истёкшим.
func ClassifyWithin(expiryDate *time.Time, today time.Time, window int) *Classification {
	if expiryDate == nil || expiryDate.IsZero() {
		return nil
	}

	days := clock.DaysBetween(today, *expiryDate)

	state := StateActive
	switch {
	case days < 0:
		state = StateExpired
	case days <= window:
		state = StateExpiringSoon
	}

	return &Classification{DaysUntilExpiry: days, State: state}
}

// Bucket задаёт раздел отчёта об истекающих сроках.
type Bucket string

const (
	BucketNone      Bucket = ""
	BucketExpired   Bucket = "expired"
	BucketThisWeek  Bucket = "this_week"
	BucketThisMonth Bucket = "this_month"
)

// BucketOf определяет раздел отчёта: истёкшие, ближайшие 7 дней, ближайшие 30 дней.
func BucketOf(expiryDate *time.Time, today time.Time) Bucket {
	c := Classify(expiryDate, today)
	if c == nil {
		return BucketNone
	}
	switch {
	case c.State == StateExpired:
		return BucketExpired
	case c.DaysUntilExpiry <= 7:
		return BucketThisWeek
	case c.DaysUntilExpiry <= SoonWindowDays:
		return BucketThisMonth
	}
	return BucketNone
}
