package telegram

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Olyame/tg-meditation/internal/registry"
	"github.com/Olyame/tg-meditation/internal/scheduler"
)

// Pending state keys used in conversational flows.
const (
	pendingTime = "await_time_text"
)

// BotClient is the part of *tgbotapi.BotAPI the router uses.
type BotClient interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Router wires Telegram updates to handlers and holds minimal in-memory state.
type Router struct {
	bot    BotClient
	log    *zap.Logger
	reg    *registry.Registry
	disp   *scheduler.Dispatcher
	loc    *time.Location
	quotes []string
	now    func() time.Time

	rndMu sync.Mutex
	rnd   *rand.Rand

	state map[int64]string // chatID -> pending state
	mu    sync.RWMutex
}

// Options carries the router's non-collaborator settings.
type Options struct {
	Location *time.Location
	Quotes   []string
	// Rand picks quotes; nil seeds a fresh PCG source.
	Rand *rand.Rand
}

// NewRouter creates a new Telegram router.
func NewRouter(bot BotClient, log *zap.Logger, reg *registry.Registry, disp *scheduler.Dispatcher, opts Options) *Router {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Router{
		bot:    bot,
		log:    log,
		reg:    reg,
		disp:   disp,
		loc:    opts.Location,
		quotes: opts.Quotes,
		now:    time.Now,
		rnd:    opts.Rand,
		state:  make(map[int64]string),
	}
}

// setPending sets a pending state for a chat (non-persistent, in-memory).
func (r *Router) setPending(chatID int64, s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state[chatID] = s
}

// getPending returns current pending state for a chat.
func (r *Router) getPending(chatID int64) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state[chatID]
}

// clearPending clears a pending state for a chat.
func (r *Router) clearPending(chatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.state, chatID)
}

// HandleUpdate routes a single update to appropriate handler.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message != nil && upd.Message.Chat != nil {
		msg := upd.Message
		chatID := msg.Chat.ID

		if !msg.IsCommand() {
			// Free-form text used in the custom time flow
			r.handleFreeForm(ctx, chatID, strings.TrimSpace(msg.Text))
			return
		}

		// Any command abandons a pending flow.
		r.clearPending(chatID)
		args := strings.TrimSpace(msg.CommandArguments())

		switch msg.Command() {
		case "start":
			r.handleStart(ctx, chatID)
		case "stop":
			r.handleStop(ctx, chatID)
		case "test":
			r.handleTest(chatID)
		case "settime":
			r.handleSetTime(ctx, chatID, args)
		case "time":
			r.handleTime(chatID)
		case "resettime":
			r.handleResetTime(ctx, chatID)
		case "quote":
			r.handleQuote(chatID)
		case "help":
			r.sendText(chatID, usageText)
		default:
			r.log.Debug("unknown command", zap.String("command", msg.Command()), zap.Int64("chatID", chatID))
		}
		return
	}

	// Callback queries (inline buttons)
	if upd.CallbackQuery != nil && upd.CallbackQuery.Message != nil && upd.CallbackQuery.Message.Chat != nil {
		cb := upd.CallbackQuery
		chatID := cb.Message.Chat.ID

		switch {
		case strings.HasPrefix(cb.Data, "time:"):
			r.handleTimeCallback(ctx, chatID, cb.Data, cb.ID)
		default:
			// Unknown callback — ignore silently
			_ = r.answerCallback(cb.ID, "")
		}
	}
}

// Sender delivers plain text messages; it satisfies scheduler.Sender.
type Sender struct {
	bot BotClient
}

func NewSender(bot BotClient) *Sender { return &Sender{bot: bot} }

// SendMessage sends a plain text message to the given chat.
func (s *Sender) SendMessage(chatID int64, text string) error {
	_, err := s.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}
