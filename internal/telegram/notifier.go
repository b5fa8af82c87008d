package telegram

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/user/moodline/internal/delivery"
	"github.com/user/moodline/internal/types"
)

const maxTelegramMessage = 4096

// Notifier pushes insight messages to Telegram chats. Send-only: the bot
// never polls for updates, it exists purely as a delivery channel.
type Notifier struct {
	bot *tgbotapi.BotAPI
}

// New creates a Telegram notifier with the given bot token.
func New(token string) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	return &Notifier{bot: bot}, nil
}

// RegisterWith wires the notifier into the delivery registry under the
// "telegram:" prefix. Targets look like "telegram:123456" where the number
// is a chat ID.
func (n *Notifier) RegisterWith(reg *delivery.Registry) {
	reg.Register("telegram:", n.deliver)
}

func (n *Notifier) deliver(target string, result *types.InsightResult) error {
	raw := strings.TrimPrefix(target, "telegram:")
	chatID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram target %q: %w", target, err)
	}
	return n.Send(chatID, delivery.Format(result))
}

// Send pushes text to one chat, splitting it to fit Telegram's message
// size limit.
func (n *Notifier) Send(chatID int64, text string) error {
	for _, part := range splitMessage(text) {
		msg := tgbotapi.NewMessage(chatID, part)
		msg.ParseMode = "Markdown"
		if _, err := n.bot.Send(msg); err != nil {
			// Retry without markdown if it fails
			msg.ParseMode = ""
			if _, err := n.bot.Send(msg); err != nil {
				slog.Error("telegram send failed", "chat_id", chatID, "error", err)
				return fmt.Errorf("send message: %w", err)
			}
		}
	}
	return nil
}

func splitMessage(text string) []string {
	if len(text) <= maxTelegramMessage {
		return []string{text}
	}
	var parts []string
	for len(text) > 0 {
		end := maxTelegramMessage
		if end > len(text) {
			end = len(text)
		}
		parts = append(parts, text[:end])
		text = text[end:]
	}
	return parts
}
