package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Olyame/tg-meditation/internal/domain"
	"github.com/Olyame/tg-meditation/internal/registry"
	"github.com/Olyame/tg-meditation/internal/scheduler"
)

// --- Generic helpers ---

func (r *Router) sendText(chatID int64, text string) {
	if _, err := r.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		r.log.Warn("reply failed", zap.Error(err), zap.Int64("chatID", chatID))
	}
}

func (r *Router) sendWithMarkup(chatID int64, text string, markup interface{}) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	if _, err := r.bot.Send(msg); err != nil {
		r.log.Warn("reply failed", zap.Error(err), zap.Int64("chatID", chatID))
	}
}

func (r *Router) answerCallback(id, text string) error {
	_, err := r.bot.Request(tgbotapi.NewCallback(id, text))
	return err
}

func (r *Router) perUser() bool {
	return r.disp.Policy() == scheduler.PolicyPerUser
}

// nextFor formats the next delivery instant for chatID in the bot's timezone.
func (r *Router) nextFor(chatID int64) string {
	c := r.reg.Default()
	if r.perUser() {
		c = r.reg.EffectiveTime(chatID)
	}
	return domain.LocalizeTime(domain.NextFire(r.now(), c, r.loc), r.loc)
}

// --- Core commands ---

func (r *Router) handleStart(ctx context.Context, chatID int64) {
	added, err := r.reg.Subscribe(ctx, chatID)
	if err != nil {
		r.log.Error("subscribe failed", zap.Error(err), zap.Int64("chatID", chatID))
		r.sendText(chatID, "Subscription error. Please try again later.")
		return
	}
	if !added {
		r.sendWithMarkup(chatID, fmt.Sprintf(alreadySubscribedFmt, r.nextFor(chatID)), mainMenuKeyboard(true))
		return
	}
	r.log.Info("user subscribed", zap.Int64("chatID", chatID))

	at := r.reg.Default()
	if r.perUser() {
		at = r.reg.EffectiveTime(chatID)
	}
	r.sendWithMarkup(chatID, fmt.Sprintf(startFmt, at, r.loc), mainMenuKeyboard(true))
}

func (r *Router) handleStop(ctx context.Context, chatID int64) {
	removed, err := r.reg.Unsubscribe(ctx, chatID)
	if err != nil {
		r.log.Error("unsubscribe failed", zap.Error(err), zap.Int64("chatID", chatID))
		r.sendText(chatID, "Failed to unsubscribe. Please try again later.")
		return
	}
	if !removed {
		r.sendWithMarkup(chatID, notSubscribedText, mainMenuKeyboard(false))
		return
	}
	r.log.Info("user unsubscribed", zap.Int64("chatID", chatID))
	r.sendWithMarkup(chatID, stopText, mainMenuKeyboard(false))
}

func (r *Router) handleTest(chatID int64) {
	if err := r.disp.SendNow(chatID); err != nil {
		r.sendText(chatID, testFailedText)
		return
	}
	r.log.Info("test reminder sent", zap.Int64("chatID", chatID))
}

func (r *Router) handleQuote(chatID int64) {
	r.rndMu.Lock()
	q := domain.PickQuote(r.rnd, r.quotes)
	r.rndMu.Unlock()
	if q == "" {
		q = "Breathe."
	}
	r.sendText(chatID, "💭 "+q)
}

// --- Reminder time flow ---

func (r *Router) handleSetTime(ctx context.Context, chatID int64, args string) {
	if !r.perUser() {
		r.sendText(chatID, fmt.Sprintf(fixedScheduleFmt, r.reg.Default(), r.loc))
		return
	}
	if !r.reg.IsSubscribed(chatID) {
		r.sendText(chatID, notSubscribedText)
		return
	}
	if args == "" {
		r.sendWithMarkup(chatID, askTimeText, timePresetsKeyboard())
		r.setPending(chatID, pendingTime)
		return
	}
	r.applyTime(ctx, chatID, args)
}

func (r *Router) applyTime(ctx context.Context, chatID int64, text string) {
	c, err := domain.ParseClock(text)
	if err != nil {
		r.sendText(chatID, invalidTimeText)
		return
	}
	if err := r.reg.SetTime(ctx, chatID, c.Hour, c.Minute); err != nil {
		switch {
		case errors.Is(err, registry.ErrNotSubscribed):
			r.sendText(chatID, notSubscribedText)
		case errors.Is(err, domain.ErrInvalidTime):
			r.sendText(chatID, invalidTimeText)
		default:
			r.log.Error("set time failed", zap.Error(err), zap.Int64("chatID", chatID))
			r.sendText(chatID, saveFailedText)
		}
		return
	}
	r.log.Info("reminder time set", zap.Int64("chatID", chatID), zap.Stringer("time", c))
	r.sendText(chatID, fmt.Sprintf(timeSetFmt, c, r.loc, r.nextFor(chatID)))
}

func (r *Router) handleTime(chatID int64) {
	if !r.reg.IsSubscribed(chatID) {
		r.sendText(chatID, notSubscribedText)
		return
	}
	if c, ok := r.reg.Override(chatID); ok && r.perUser() {
		r.sendText(chatID, fmt.Sprintf(timeOwnFmt, c, r.loc, r.nextFor(chatID)))
		return
	}
	r.sendText(chatID, fmt.Sprintf(timeDefaultFmt, r.reg.Default(), r.loc, r.nextFor(chatID)))
}

func (r *Router) handleResetTime(ctx context.Context, chatID int64) {
	if err := r.reg.ClearTime(ctx, chatID); err != nil {
		r.log.Error("reset time failed", zap.Error(err), zap.Int64("chatID", chatID))
		r.sendText(chatID, saveFailedText)
		return
	}
	r.sendText(chatID, fmt.Sprintf(timeResetFmt, r.reg.Default(), r.loc))
}

func (r *Router) handleTimeCallback(ctx context.Context, chatID int64, data, cbID string) {
	_ = r.answerCallback(cbID, "")
	r.clearPending(chatID)
	val := strings.TrimPrefix(data, "time:")
	if val == "reset" {
		r.handleResetTime(ctx, chatID)
		return
	}
	if !r.perUser() {
		r.sendText(chatID, fmt.Sprintf(fixedScheduleFmt, r.reg.Default(), r.loc))
		return
	}
	r.applyTime(ctx, chatID, val)
}

// --- Free-form dispatcher (for "Custom" inputs) ---

func (r *Router) handleFreeForm(ctx context.Context, chatID int64, text string) {
	switch r.getPending(chatID) {
	case pendingTime:
		r.clearPending(chatID)
		r.applyTime(ctx, chatID, text)
	default:
		// No pending flow: ignore free-form message
	}
}
