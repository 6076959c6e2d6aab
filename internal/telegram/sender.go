package telegram

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"hcbot/internal/dispatch"
)

// Bot: часть tgbotapi.BotAPI, которой пользуется пакет.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

var _ Bot = (*tgbotapi.BotAPI)(nil)

// NewBotAPI создаёт клиента Telegram. insecure отключает проверку сертификата
// (нужно за перехватывающими прокси).
func NewBotAPI(token string, insecure bool) (*tgbotapi.BotAPI, error) {
	client := &http.Client{
		Timeout: 90 * time.Second,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: insecure,
			},
		},
	}
	bot, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания Telegram-бота: %w", err)
	}
	bot.Debug = false
	return bot, nil
}

// Outbox строит цели доставки для рассылок по расписанию.
type Outbox struct {
	bot Bot
	log *zap.Logger
}

func NewOutbox(bot Bot, log *zap.Logger) *Outbox {
	return &Outbox{bot: bot, log: log.Named("outbox")}
}

func (o *Outbox) Target(chatID int64) dispatch.Target {
	return &chatTarget{outbox: o, chatID: chatID}
}

var parseModes = map[dispatch.Format]string{
	dispatch.Markdown:   tgbotapi.ModeMarkdown,
	dispatch.MarkdownV2: tgbotapi.ModeMarkdownV2,
}

// sendMessage отправляет сообщение; если Telegram не принял разметку,
// повторяет отправку без неё.
func (o *Outbox) sendMessage(ctx context.Context, msg tgbotapi.MessageConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := o.bot.Send(msg)
	if err != nil && msg.ParseMode != "" {
		o.log.Warn("разметка отклонена, отправляем без неё",
			zap.Int64("chat_id", msg.ChatID), zap.String("mode", msg.ParseMode), zap.Error(err))
		msg.ParseMode = ""
		_, err = o.bot.Send(msg)
	}
	if err != nil {
		return fmt.Errorf("ошибка отправки сообщения: %w", err)
	}
	return nil
}

func (o *Outbox) sendFile(ctx context.Context, chatID int64, f dispatch.File, markup interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  f.Name,
		Bytes: f.Data,
	})
	doc.Caption = f.Caption
	doc.ReplyMarkup = markup
	if _, err := o.bot.Send(doc); err != nil {
		return fmt.Errorf("ошибка отправки файла: %w", err)
	}
	return nil
}

// chatTarget отправляет в один чат без клавиатур.
type chatTarget struct {
	outbox *Outbox
	chatID int64
}

func (t *chatTarget) ChatID() int64 { return t.chatID }

func (t *chatTarget) SendText(ctx context.Context, text string, format dispatch.Format) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = parseModes[format]
	msg.DisableWebPagePreview = true
	return t.outbox.sendMessage(ctx, msg)
}

func (t *chatTarget) SendFile(ctx context.Context, f dispatch.File) error {
	return t.outbox.sendFile(ctx, t.chatID, f, nil)
}
