package telegram

import (
	"errors"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Bad Request descriptions that mean the chat cannot be reached again.
var goneDescriptions = []string{
	"chat not found",
	"user is deactivated",
	"peer_id_invalid",
	"bot was kicked",
}

// IsPermanent reports whether err from the Bot API means the chat is gone
// for good: the user blocked the bot, deleted the account, or the chat no
// longer exists. Network errors, rate limits and server errors are not
// permanent.
func IsPermanent(err error) bool {
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Code {
	case http.StatusForbidden:
		return true
	case http.StatusBadRequest:
		desc := strings.ToLower(apiErr.Message)
		for _, s := range goneDescriptions {
			if strings.Contains(desc, s) {
				return true
			}
		}
	}
	return false
}
