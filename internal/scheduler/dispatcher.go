package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Olyame/tg-meditation/internal/domain"
	"github.com/Olyame/tg-meditation/internal/registry"
)

// Sender is a minimal interface the dispatcher needs to send a text message.
// telegram.Sender implements it over the Bot API.
type Sender interface {
	SendMessage(chatID int64, text string) error
}

// Policy selects which subscribers are due on a tick.
type Policy string

const (
	// PolicyFixed: the trigger fires once a day at the default time and
	// every subscriber is due.
	PolicyFixed Policy = "fixed"
	// PolicyPerUser: the trigger fires every minute and a subscriber is due
	// when its effective time equals the current local minute.
	PolicyPerUser Policy = "per_user"
)

// EvictMode controls which delivery failures unsubscribe a chat under
// PolicyFixed. PolicyPerUser never evicts.
type EvictMode string

const (
	EvictAny       EvictMode = "any"
	EvictPermanent EvictMode = "permanent"
	EvictNever     EvictMode = "never"
)

// DeliveryError is a failed delivery to one chat.
type DeliveryError struct {
	ChatID    int64
	Permanent bool
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver to %d: %v", e.ChatID, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Options configures a Dispatcher.
type Options struct {
	Policy   Policy
	Evict    EvictMode
	Location *time.Location
	Text     string
	// IsPermanent reports whether a send error means the chat is gone for
	// good (blocked, deleted). Nil treats every error as transient.
	IsPermanent func(error) bool
}

// Report summarizes one tick.
type Report struct {
	Eligible  int
	Delivered int
	Failed    int
	Evicted   int
}

// Dispatcher delivers the reminder text to the subscribers due on a tick.
type Dispatcher struct {
	reg    *registry.Registry
	sender Sender
	log    *zap.Logger
	opts   Options
}

// NewDispatcher creates a Dispatcher. A nil Location means UTC.
func NewDispatcher(reg *registry.Registry, sender Sender, log *zap.Logger, opts Options) *Dispatcher {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Policy == "" {
		opts.Policy = PolicyFixed
	}
	if opts.Evict == "" {
		opts.Evict = EvictPermanent
	}
	return &Dispatcher{reg: reg, sender: sender, log: log, opts: opts}
}

// Policy returns the active eligibility policy.
func (d *Dispatcher) Policy() Policy { return d.opts.Policy }

// Eligible returns the chats in subs that are due at now.
func (d *Dispatcher) Eligible(subs []domain.Subscription, now time.Time) []int64 {
	out := make([]int64, 0, len(subs))
	for _, s := range subs {
		if d.opts.Policy == PolicyPerUser && !domain.Due(now, s.Effective(d.reg.Default()), d.opts.Location) {
			continue
		}
		out = append(out, s.ChatID)
	}
	return out
}

// Tick performs one dispatch cycle against a snapshot taken on entry.
// A failure for one chat never stops delivery to the rest.
func (d *Dispatcher) Tick(ctx context.Context, now time.Time) Report {
	due := d.Eligible(d.reg.Snapshot(), now)
	rep := Report{Eligible: len(due)}
	if len(due) == 0 {
		d.log.Debug("tick: nothing due", zap.Time("now", now.In(d.opts.Location)))
		return rep
	}

	for _, chatID := range due {
		err := d.deliver(chatID)
		if err == nil {
			rep.Delivered++
			d.log.Info("reminder sent", zap.Int64("chatID", chatID))
			continue
		}
		rep.Failed++
		d.log.Error("send failed",
			zap.Error(err.Err),
			zap.Int64("chatID", chatID),
			zap.Bool("permanent", err.Permanent),
		)
		if d.shouldEvict(err) {
			if _, uerr := d.reg.Unsubscribe(ctx, chatID); uerr != nil {
				d.log.Error("evict failed", zap.Error(uerr), zap.Int64("chatID", chatID))
				continue
			}
			rep.Evicted++
			d.log.Warn("subscriber evicted", zap.Int64("chatID", chatID))
		}
	}

	d.log.Info("tick done",
		zap.Int("eligible", rep.Eligible),
		zap.Int("delivered", rep.Delivered),
		zap.Int("failed", rep.Failed),
		zap.Int("evicted", rep.Evicted),
	)
	return rep
}

// SendNow delivers the reminder to chatID immediately, outside any
// schedule. It never evicts.
func (d *Dispatcher) SendNow(chatID int64) error {
	if err := d.deliver(chatID); err != nil {
		d.log.Error("send now failed", zap.Error(err.Err), zap.Int64("chatID", chatID))
		return err
	}
	return nil
}

func (d *Dispatcher) deliver(chatID int64) *DeliveryError {
	err := d.sender.SendMessage(chatID, d.opts.Text)
	if err == nil {
		return nil
	}
	permanent := d.opts.IsPermanent != nil && d.opts.IsPermanent(err)
	return &DeliveryError{ChatID: chatID, Permanent: permanent, Err: err}
}

func (d *Dispatcher) shouldEvict(err *DeliveryError) bool {
	if d.opts.Policy != PolicyFixed {
		return false
	}
	switch d.opts.Evict {
	case EvictAny:
		return true
	case EvictPermanent:
		return err.Permanent
	default:
		return false
	}
}
