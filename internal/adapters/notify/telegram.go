package notify

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"jobwatch/internal/config"
	"jobwatch/internal/domain/model"
)

// markdownEscaper escapes the characters MarkdownV2 treats as syntax.
var markdownEscaper = strings.NewReplacer(
	"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(", ")", "\\)",
	"~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#", "+", "\\+", "-", "\\-",
	"=", "\\=", "|", "\\|", "{", "\\{", "}", "\\}", ".", "\\.", "!", "\\!",
)

// telegramAPI is the slice of the bot client the channel needs.
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends one message per posting to a chat.
type Telegram struct {
	api    telegramAPI
	chatID int64
}

// NewTelegram connects the bot. The token is verified with a getMe call, so
// a bad token fails here rather than during the first cycle.
func NewTelegram(cfg config.TelegramConfig) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("%w: telegram: %w", ErrChannelUnavailable, err)
	}
	return &Telegram{api: bot, chatID: cfg.ChatID}, nil
}

func (t *Telegram) Name() string { return "telegram" }

// Send delivers a single posting as a MarkdownV2 message.
func (t *Telegram) Send(ctx context.Context, p model.Posting) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: telegram: %w", ErrSend, err)
	}
	msg := tgbotapi.NewMessage(t.chatID, formatTelegramMessage(p))
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.DisableWebPagePreview = true
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("%w: telegram: %w", ErrSend, err)
	}
	return nil
}

// SendBatch delivers postings one message at a time and stops at the first
// failure, returning whatever already went out.
func (t *Telegram) SendBatch(ctx context.Context, postings []model.Posting) ([]model.Posting, error) {
	delivered := make([]model.Posting, 0, len(postings))
	for _, p := range postings {
		if err := t.Send(ctx, p); err != nil {
			return delivered, err
		}
		delivered = append(delivered, p)
	}
	return delivered, nil
}

func formatTelegramMessage(p model.Posting) string {
	var b strings.Builder
	b.WriteString("🚀 *New Job Alert\\!*\n\n")
	fmt.Fprintf(&b, "*%s*\n", markdownEscaper.Replace(p.Title))
	fmt.Fprintf(&b, "🏢 %s\n", markdownEscaper.Replace(p.Company))
	if p.Location != "" {
		fmt.Fprintf(&b, "📍 %s\n", markdownEscaper.Replace(p.Location))
	}
	if p.JobType != "" {
		fmt.Fprintf(&b, "💼 %s\n", markdownEscaper.Replace(p.JobType))
	}
	fmt.Fprintf(&b, "\n🔗 [Apply Here](%s)", p.URL)
	return b.String()
}
