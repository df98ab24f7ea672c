package telegram

import (
	"errors"
	"fmt"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func TestIsPermanent(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"blocked", &tgbotapi.Error{Code: 403, Message: "Forbidden: bot was blocked by the user"}, true},
		{"kicked", &tgbotapi.Error{Code: 403, Message: "Forbidden: bot was kicked from the group chat"}, true},
		{"chat not found", &tgbotapi.Error{Code: 400, Message: "Bad Request: chat not found"}, true},
		{"deactivated", &tgbotapi.Error{Code: 400, Message: "Bad Request: user is deactivated"}, true},
		{"wrapped", fmt.Errorf("send: %w", &tgbotapi.Error{Code: 403, Message: "Forbidden"}), true},
		{"bad markup", &tgbotapi.Error{Code: 400, Message: "Bad Request: can't parse entities"}, false},
		{"rate limit", &tgbotapi.Error{Code: 429, Message: "Too Many Requests: retry after 5"}, false},
		{"server", &tgbotapi.Error{Code: 502, Message: "Bad Gateway"}, false},
		{"network", errors.New("dial tcp: i/o timeout"), false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsPermanent(tc.err); got != tc.want {
				t.Fatalf("IsPermanent(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
