// Package telegram реализует интерфейс бота: меню, диалоги добавления расписаний и лент,
// отправка сообщений и файлов.
package telegram

import (
	"context"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"hcbot/internal/dispatch"
	"hcbot/internal/domain"
	"hcbot/internal/feeds"
)

// Schedules: API изменения расписаний.
type Schedules interface {
	Add(ctx context.Context, chatID int64, at string, kind domain.Kind, location string) bool
	Remove(ctx context.Context, chatID int64, index int) bool
	RemoveAll(ctx context.Context, chatID int64) bool
	List(ctx context.Context, chatID int64) []domain.Entry
}

type Feeds interface {
	Add(ctx context.Context, chatID int64, feedURL, name string) (string, error)
	Remove(ctx context.Context, chatID int64, name string) error
	RemoveAll(ctx context.Context, chatID int64) error
	Get(ctx context.Context, chatID int64, name string) (string, error)
	List(ctx context.Context, chatID int64) ([]feeds.Feed, error)
}

// Content описывает то, что интерфейс запрашивает напрямую, минуя процедуры рассылки.
type Content interface {
	News(ctx context.Context, force bool) (string, error)
	NewsFile(ctx context.Context) (dispatch.File, error)
	Horoscope(ctx context.Context, sign string) (string, error)
	RSS(ctx context.Context, feedURL string, force bool) (string, error)
	RSSFile(ctx context.Context, feedURL string) (dispatch.File, error)
}

// Deliverer запускает процедуру рассылки для ручного запроса из меню.
type Deliverer interface {
	Deliver(ctx context.Context, to dispatch.Target, kind domain.Kind, location string) error
}

// Ожидаемый свободный ввод.
const (
	pendingCustomTime = "await_custom_time"
	pendingCity       = "await_city"
	pendingRSSURL     = "await_rss_url"
	pendingRSSName    = "await_rss_name"
)

// pending хранит незавершённый диалог чата. Хранится только в памяти.
type pending struct {
	step     string
	kind     domain.Kind
	location string
	url      string
}

type Router struct {
	bot       Bot
	outbox    *Outbox
	log       *zap.Logger
	schedules Schedules
	feeds     Feeds
	content   Content
	deliverer Deliverer

	defaultCity string

	mu    sync.Mutex
	state map[int64]*pending

	// медленные скрипты выполняются вне цикла обновлений
	wg sync.WaitGroup
}

type RouterDeps struct {
	Schedules   Schedules
	Feeds       Feeds
	Content     Content
	Deliverer   Deliverer
	DefaultCity string
}

func NewRouter(bot Bot, log *zap.Logger, deps RouterDeps) *Router {
	log = log.Named("router")
	return &Router{
		bot:         bot,
		outbox:      NewOutbox(bot, log),
		log:         log,
		schedules:   deps.Schedules,
		feeds:       deps.Feeds,
		content:     deps.Content,
		deliverer:   deps.Deliverer,
		defaultCity: deps.DefaultCity,
		state:       make(map[int64]*pending),
	}
}

// Wait дожидается фоновых запросов контента.
func (r *Router) Wait() {
	r.wg.Wait()
}

func (r *Router) getPending(chatID int64) *pending {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.state[chatID]; ok {
		cp := *p
		return &cp
	}
	return nil
}

func (r *Router) setPending(chatID int64, p pending) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state[chatID] = &p
}

func (r *Router) clearPending(chatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.state, chatID)
}

// HandleUpdate разбирает одно обновление. Ошибки не возвращаются: пользователь
// получает короткое сообщение, причина уходит в лог.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message != nil {
		msg := upd.Message
		chatID := msg.Chat.ID
		text := strings.TrimSpace(msg.Text)

		switch {
		case strings.HasPrefix(text, "/start"):
			r.clearPending(chatID)
			name := ""
			if msg.From != nil {
				name = msg.From.FirstName
			}
			r.handleStart(ctx, chatID, name)
		case strings.HasPrefix(text, "/cancel"):
			r.clearPending(chatID)
			r.reply(ctx, chatID, cancelledText, mainMenuKeyboard())
		case strings.HasPrefix(text, "/help"):
			r.reply(ctx, chatID, helpText, nil)
		default:
			r.handleFreeForm(ctx, chatID, text)
		}
		return
	}

	if upd.CallbackQuery != nil {
		cb := upd.CallbackQuery
		if cb.Message == nil {
			return
		}
		r.answerCallback(cb.ID)
		r.handleCallback(ctx, cb.Message.Chat.ID, cb.Data)
	}
}

func (r *Router) handleCallback(ctx context.Context, chatID int64, data string) {
	switch {
	case data == cbMainMenu:
		r.clearPending(chatID)
		r.reply(ctx, chatID, menuText, mainMenuKeyboard())
	case data == cbSettings:
		r.reply(ctx, chatID, settingsText, returnKeyboard())

	// контент
	case data == cbNews:
		r.reply(ctx, chatID, newsMenuText, newsMenuKeyboard())
	case data == cbNewsMsg:
		r.deliverAsync(ctx, chatID, domain.KindNews, "")
	case data == cbNewsFile:
		r.sendNewsFile(ctx, chatID)
	case data == cbNewsForce:
		r.forceNews(ctx, chatID)
	case data == cbHoroscope:
		r.reply(ctx, chatID, zodiacText, zodiacKeyboard())
	case data == prefixHoroscope+allSuffix:
		r.deliverAsync(ctx, chatID, domain.KindHoroscope, "")
	case strings.HasPrefix(data, prefixHoroscope):
		r.sendSign(ctx, chatID, strings.TrimPrefix(data, prefixHoroscope))
	case data == cbWeather:
		r.deliverAsync(ctx, chatID, domain.KindWeather, "")
	case data == cbExchange:
		r.deliverAsync(ctx, chatID, domain.KindExchange, "")
	case data == cbBicho:
		r.deliverAsync(ctx, chatID, domain.KindBicho, "")
	case data == cbRU:
		r.reply(ctx, chatID, ruMenuText, ruKeyboard(prefixRU, mainMenuButton()))
	case strings.HasPrefix(data, prefixRU):
		r.deliverAsync(ctx, chatID, domain.KindRU, strings.TrimPrefix(data, prefixRU))

	// расписания
	case data == cbSchedule, data == cbScheduleMenu:
		r.clearPending(chatID)
		r.showSchedules(ctx, chatID)
	case data == cbScheduleAdd:
		r.reply(ctx, chatID, scheduleTypeText, scheduleTypeKeyboard())
	case strings.HasPrefix(data, prefixScheduleType):
		r.handleScheduleType(ctx, chatID, strings.TrimPrefix(data, prefixScheduleType))
	case strings.HasPrefix(data, prefixScheduleLoc):
		r.handleScheduleLocation(ctx, chatID, strings.TrimPrefix(data, prefixScheduleLoc))
	case strings.HasPrefix(data, prefixScheduleFeed):
		r.handleScheduleLocation(ctx, chatID, strings.TrimPrefix(data, prefixScheduleFeed))
	case strings.HasPrefix(data, prefixScheduleTime):
		r.handleScheduleTime(ctx, chatID, strings.TrimPrefix(data, prefixScheduleTime))
	case data == cbScheduleRemove:
		r.askScheduleRemoval(ctx, chatID)
	case strings.HasPrefix(data, prefixScheduleRemove):
		r.handleScheduleRemoval(ctx, chatID, strings.TrimPrefix(data, prefixScheduleRemove))

	// RSS
	case data == cbRSS:
		r.clearPending(chatID)
		r.showFeeds(ctx, chatID)
	case data == cbRSSSet:
		r.setPending(chatID, pending{step: pendingRSSURL})
		r.reply(ctx, chatID, rssAskURL, rssBackKeyboard())
	case data == cbRSSAutoName:
		r.saveFeed(ctx, chatID, "")
	case data == cbRSSRemove:
		r.askFeedRemoval(ctx, chatID)
	case strings.HasPrefix(data, prefixRSSView):
		r.showFeed(ctx, chatID, strings.TrimPrefix(data, prefixRSSView))
	case strings.HasPrefix(data, prefixRSSMessage):
		r.deliverAsync(ctx, chatID, domain.KindRSS, strings.TrimPrefix(data, prefixRSSMessage))
	case strings.HasPrefix(data, prefixRSSFile):
		r.sendFeedFile(ctx, chatID, strings.TrimPrefix(data, prefixRSSFile))
	case strings.HasPrefix(data, prefixRSSDelete):
		r.handleFeedRemoval(ctx, chatID, strings.TrimPrefix(data, prefixRSSDelete))

	default:
		r.log.Debug("неизвестная кнопка", zap.Int64("chat_id", chatID), zap.String("data", data))
	}
}

func (r *Router) handleFreeForm(ctx context.Context, chatID int64, text string) {
	p := r.getPending(chatID)
	if p == nil {
		r.reply(ctx, chatID, helpText, mainMenuKeyboard())
		return
	}

	switch p.step {
	case pendingCustomTime:
		r.clearPending(chatID)
		r.addSchedule(ctx, chatID, *p, text)
	case pendingCity:
		p.location = text
		p.step = ""
		r.setPending(chatID, *p)
		r.reply(ctx, chatID, scheduleTimeText, timeKeyboard())
	case pendingRSSURL:
		r.handleFeedURL(ctx, chatID, text)
	case pendingRSSName:
		r.saveFeed(ctx, chatID, text)
	default:
		r.reply(ctx, chatID, helpText, mainMenuKeyboard())
	}
}

func (r *Router) handleStart(ctx context.Context, chatID int64, firstName string) {
	msg := tgbotapi.NewMessage(chatID, formatStart(firstName))
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = mainMenuKeyboard()
	if err := r.outbox.sendMessage(ctx, msg); err != nil {
		r.log.Error("не удалось отправить приветствие", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// --- общие помощники ---

func (r *Router) reply(ctx context.Context, chatID int64, text string, markup interface{}) {
	r.replyMode(ctx, chatID, text, "", markup)
}

func (r *Router) replyMode(ctx context.Context, chatID int64, text, mode string, markup interface{}) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = mode
	msg.DisableWebPagePreview = true
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if err := r.outbox.sendMessage(ctx, msg); err != nil {
		r.log.Error("не удалось отправить сообщение", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (r *Router) answerCallback(id string) {
	if _, err := r.bot.Request(tgbotapi.NewCallback(id, "")); err != nil {
		r.log.Debug("answerCallback", zap.Error(err))
	}
}

// spawn выполняет fn в фоне, чтобы скрипты не задерживали остальные чаты.
func (r *Router) spawn(fn func()) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		fn()
	}()
}
