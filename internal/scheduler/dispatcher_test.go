package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Olyame/tg-meditation/internal/domain"
	"github.com/Olyame/tg-meditation/internal/registry"
	"github.com/Olyame/tg-meditation/internal/store"
)

const reminder = "time to meditate"

var (
	errBlocked = errors.New("Forbidden: bot was blocked by the user")
	errNetwork = errors.New("connection reset by peer")
	sortIDs    = cmpopts.SortSlices(func(a, b int64) bool { return a < b })
)

// fakeSender records deliveries and fails chats listed in fail.
type fakeSender struct {
	fail map[int64]error
	sent []int64
	text []string
}

func (f *fakeSender) SendMessage(chatID int64, text string) error {
	if err := f.fail[chatID]; err != nil {
		return err
	}
	f.sent = append(f.sent, chatID)
	f.text = append(f.text, text)
	return nil
}

func isBlocked(err error) bool { return errors.Is(err, errBlocked) }

func berlin(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Fatalf("load tz: %v", err)
	}
	return loc
}

func newRegistry(t *testing.T, ids ...int64) *registry.Registry {
	t.Helper()
	r := registry.New(store.NewMemory(), domain.MustClock(9, 20))
	for _, id := range ids {
		if _, err := r.Subscribe(context.Background(), id); err != nil {
			t.Fatal(err)
		}
	}
	return r
}

func newDispatcher(t *testing.T, reg *registry.Registry, s Sender, p Policy, ev EvictMode) *Dispatcher {
	t.Helper()
	return NewDispatcher(reg, s, zap.NewNop(), Options{
		Policy:      p,
		Evict:       ev,
		Location:    berlin(t),
		Text:        reminder,
		IsPermanent: isBlocked,
	})
}

func at(t *testing.T, hh, mm int) time.Time {
	t.Helper()
	return time.Date(2025, time.March, 3, hh, mm, 7, 0, berlin(t))
}

func TestTick_PerUser_DefaultTime(t *testing.T) {
	reg := newRegistry(t, 1)
	s := &fakeSender{}
	d := newDispatcher(t, reg, s, PolicyPerUser, EvictNever)

	rep := d.Tick(context.Background(), at(t, 9, 20))
	if rep.Delivered != 1 || len(s.sent) != 1 || s.sent[0] != 1 {
		t.Fatalf("want exactly one delivery to 1, got %+v sent=%v", rep, s.sent)
	}
	if s.text[0] != reminder {
		t.Fatalf("wrong text %q", s.text[0])
	}

	s.sent = nil
	rep = d.Tick(context.Background(), at(t, 9, 21))
	if rep.Eligible != 0 || len(s.sent) != 0 {
		t.Fatalf("want no delivery at 09:21, got %+v sent=%v", rep, s.sent)
	}
}

func TestTick_PerUser_Override(t *testing.T) {
	reg := newRegistry(t, 1, 2)
	if err := reg.SetTime(context.Background(), 2, 14, 5); err != nil {
		t.Fatal(err)
	}
	s := &fakeSender{}
	d := newDispatcher(t, reg, s, PolicyPerUser, EvictNever)

	d.Tick(context.Background(), at(t, 14, 5))
	if diff := cmp.Diff([]int64{2}, s.sent); diff != "" {
		t.Fatalf("at 14:05 (-want +got):\n%s", diff)
	}

	s.sent = nil
	d.Tick(context.Background(), at(t, 9, 20))
	if diff := cmp.Diff([]int64{1}, s.sent); diff != "" {
		t.Fatalf("at 09:20 (-want +got):\n%s", diff)
	}
}

func TestTick_PerUser_ComparesInConfiguredLocation(t *testing.T) {
	reg := newRegistry(t, 1)
	s := &fakeSender{}
	d := newDispatcher(t, reg, s, PolicyPerUser, EvictNever)

	// 08:20 UTC is 09:20 in Berlin during winter time.
	now := time.Date(2025, time.January, 10, 8, 20, 0, 0, time.UTC)
	if rep := d.Tick(context.Background(), now); rep.Delivered != 1 {
		t.Fatalf("want delivery at 09:20 Berlin, got %+v", rep)
	}
}

func TestTick_Fixed_AllSubscribersDue(t *testing.T) {
	reg := newRegistry(t, 1, 2, 3)
	_ = reg.SetTime(context.Background(), 3, 6, 0)
	s := &fakeSender{}
	d := newDispatcher(t, reg, s, PolicyFixed, EvictPermanent)

	rep := d.Tick(context.Background(), at(t, 17, 33))
	if rep.Eligible != 3 || rep.Delivered != 3 {
		t.Fatalf("want 3 deliveries, got %+v", rep)
	}
	if diff := cmp.Diff([]int64{1, 2, 3}, s.sent, sortIDs); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestTick_FailureDoesNotAbortBatch(t *testing.T) {
	reg := newRegistry(t, 1, 2, 3, 4)
	s := &fakeSender{fail: map[int64]error{2: errNetwork, 3: errBlocked}}
	d := newDispatcher(t, reg, s, PolicyFixed, EvictNever)

	rep := d.Tick(context.Background(), at(t, 9, 20))
	if rep.Failed != 2 || rep.Delivered != 2 {
		t.Fatalf("want 2 failed / 2 delivered, got %+v", rep)
	}
	if diff := cmp.Diff([]int64{1, 4}, s.sent, sortIDs); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestTick_EvictAny(t *testing.T) {
	reg := newRegistry(t, 1, 3)
	s := &fakeSender{fail: map[int64]error{3: errNetwork}}
	d := newDispatcher(t, reg, s, PolicyFixed, EvictAny)

	rep := d.Tick(context.Background(), at(t, 9, 20))
	if rep.Evicted != 1 {
		t.Fatalf("want 1 eviction, got %+v", rep)
	}
	if reg.IsSubscribed(3) {
		t.Fatalf("3 should have been evicted")
	}
	if diff := cmp.Diff([]int64{1}, reg.AllSubscribers()); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestTick_EvictPermanentOnly(t *testing.T) {
	reg := newRegistry(t, 1, 2, 3)
	s := &fakeSender{fail: map[int64]error{2: errNetwork, 3: errBlocked}}
	d := newDispatcher(t, reg, s, PolicyFixed, EvictPermanent)

	rep := d.Tick(context.Background(), at(t, 9, 20))
	if rep.Evicted != 1 {
		t.Fatalf("want 1 eviction, got %+v", rep)
	}
	if !reg.IsSubscribed(2) {
		t.Fatalf("transient failure must not evict")
	}
	if reg.IsSubscribed(3) {
		t.Fatalf("blocked chat should have been evicted")
	}
}

func TestTick_PerUser_NeverEvicts(t *testing.T) {
	reg := newRegistry(t, 3)
	s := &fakeSender{fail: map[int64]error{3: errBlocked}}
	d := newDispatcher(t, reg, s, PolicyPerUser, EvictAny)

	rep := d.Tick(context.Background(), at(t, 9, 20))
	if rep.Failed != 1 || rep.Evicted != 0 {
		t.Fatalf("want 1 failure and no eviction, got %+v", rep)
	}
	if !reg.IsSubscribed(3) {
		t.Fatalf("per-user policy must keep failed chat subscribed")
	}
}

func TestTick_LogsFailureWithChat(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	reg := newRegistry(t, 5)
	s := &fakeSender{fail: map[int64]error{5: errNetwork}}
	d := NewDispatcher(reg, s, zap.New(core), Options{Policy: PolicyFixed, Evict: EvictNever, Text: reminder})

	d.Tick(context.Background(), time.Now())
	entries := logs.FilterMessage("send failed").All()
	if len(entries) != 1 {
		t.Fatalf("want one failure log, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["chatID"] != int64(5) {
		t.Fatalf("chatID missing from log: %v", fields)
	}
	if fields["error"] != errNetwork.Error() {
		t.Fatalf("cause missing from log: %v", fields)
	}
}

func TestSendNow(t *testing.T) {
	reg := newRegistry(t)
	s := &fakeSender{fail: map[int64]error{9: errBlocked}}
	d := newDispatcher(t, reg, s, PolicyFixed, EvictAny)

	if err := d.SendNow(8); err != nil {
		t.Fatalf("send now: %v", err)
	}
	err := d.SendNow(9)
	var de *DeliveryError
	if !errors.As(err, &de) {
		t.Fatalf("want *DeliveryError, got %T", err)
	}
	if de.ChatID != 9 || !de.Permanent || !errors.Is(err, errBlocked) {
		t.Fatalf("unexpected delivery error %+v", de)
	}
}

func TestTick_SnapshotAtStart(t *testing.T) {
	reg := newRegistry(t, 1, 2)
	s := &lateSubscriber{fakeSender: fakeSender{}, reg: reg, add: 99}
	d := newDispatcher(t, reg, s, PolicyFixed, EvictNever)

	rep := d.Tick(context.Background(), at(t, 9, 20))
	if rep.Eligible != 2 {
		t.Fatalf("mid-tick subscribe leaked into tick: %+v", rep)
	}
	if !reg.IsSubscribed(99) {
		t.Fatalf("mid-tick subscribe lost")
	}
}

// lateSubscriber subscribes another chat while the first delivery is in flight.
type lateSubscriber struct {
	fakeSender
	reg  *registry.Registry
	add  int64
	done bool
}

func (l *lateSubscriber) SendMessage(chatID int64, text string) error {
	if !l.done {
		l.done = true
		_, _ = l.reg.Subscribe(context.Background(), l.add)
	}
	return l.fakeSender.SendMessage(chatID, text)
}
