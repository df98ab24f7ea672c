package store

import (
	"database/sql"

	"github.com/Olyame/tg-meditation/internal/domain"
)

func toNullClock(c *domain.Clock) (hour, minute sql.NullInt64) {
	if c == nil {
		return sql.NullInt64{}, sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(c.Hour), Valid: true},
		sql.NullInt64{Int64: int64(c.Minute), Valid: true}
}

func fromNullClock(hour, minute sql.NullInt64) *domain.Clock {
	if !hour.Valid || !minute.Valid {
		return nil
	}
	return &domain.Clock{Hour: int(hour.Int64), Minute: int(minute.Int64)}
}

// jsonFile is the on-disk layout of the JSON driver.
type jsonFile struct {
	Version     int              `json:"version"`
	Subscribers []jsonSubscriber `json:"subscribers"`
}

type jsonSubscriber struct {
	ChatID int64      `json:"chat_id"`
	Time   *jsonClock `json:"time,omitempty"`
}

type jsonClock struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}
