package telegram

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// UI texts in English
const (
	usageText = "Commands:\n" +
		"/start — subscribe to the daily reminder\n" +
		"/stop — unsubscribe\n" +
		"/test — send the reminder right now\n" +
		"/settime HH:MM — choose your own reminder time\n" +
		"/time — show your reminder time\n" +
		"/resettime — go back to the default time\n" +
		"/quote — a random quote"

	startFmt = "🧘 Welcome to the Meditation Reminder Bot! 🧘\n\n" +
		"You'll receive a daily reminder at %s (%s).\n\n" + usageText
	alreadySubscribedFmt = "You're already subscribed. Next reminder: %s."
	stopText             = "❌ Unsubscribed from daily reminders.\nUse /start to subscribe again."
	notSubscribedText    = "You're not subscribed. Use /start to subscribe."

	askTimeText      = "Choose a reminder time or send your own as HH:MM (e.g. 07:45):"
	invalidTimeText  = "Invalid time. Please use HH:MM between 00:00 and 23:59, e.g. 09:20."
	timeSetFmt       = "⏰ Reminder time set to %s (%s). Next reminder: %s."
	timeOwnFmt       = "⏰ Your reminder time: %s (%s). Next reminder: %s."
	timeDefaultFmt   = "⏰ Your reminder time: default (%s, %s). Next reminder: %s."
	timeResetFmt     = "Reminder time reset to the default %s (%s)."
	fixedScheduleFmt = "Everyone gets the reminder at %s (%s); personal times are not enabled on this bot."
	saveFailedText   = "Could not save your settings. Please try again later."
	testFailedText   = "Could not deliver the reminder right now. Please try again later."
)

// mainMenuKeyboard builds a reply keyboard whose toggle button is /stop
// for subscribers and /start otherwise.
func mainMenuKeyboard(subscribed bool) tgbotapi.ReplyKeyboardMarkup {
	toggle := "/stop"
	if !subscribed {
		toggle = "/start"
	}
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("/time"),
			tgbotapi.NewKeyboardButton("/quote"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(toggle),
		),
	)
}

func timePresetsKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("06:30", "time:06:30"),
			tgbotapi.NewInlineKeyboardButtonData("07:00", "time:07:00"),
			tgbotapi.NewInlineKeyboardButtonData("08:00", "time:08:00"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("09:20", "time:09:20"),
			tgbotapi.NewInlineKeyboardButtonData("10:40", "time:10:40"),
			tgbotapi.NewInlineKeyboardButtonData("21:00", "time:21:00"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("↩️ Default", "time:reset"),
		),
	)
}
