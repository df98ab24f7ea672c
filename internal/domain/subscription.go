package domain

// Subscription is one opted-in chat. A nil Time means the chat follows
// the default reminder time.
type Subscription struct {
	ChatID int64
	Time   *Clock
}

// Effective resolves the subscription's delivery time against def.
func (s Subscription) Effective(def Clock) Clock {
	if s.Time != nil {
		return *s.Time
	}
	return def
}
