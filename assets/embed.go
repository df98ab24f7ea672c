package assets

import (
	"bufio"
	_ "embed"
	"strings"
)

//go:embed reminder.txt
var reminderText string

//go:embed quotes.txt
var quotesText string

// ReminderText is the default daily reminder message.
func ReminderText() string {
	return strings.TrimSpace(reminderText)
}

// Quotes returns the embedded quote list in file order.
func Quotes() []string {
	var out []string
	sc := bufio.NewScanner(strings.NewReader(quotesText))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}
