package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"hcbot/internal/domain"
	"hcbot/internal/feeds"
)

func formatStart(firstName string) string {
	firstName = strings.TrimSpace(firstName)
	if firstName == "" {
		return strings.Replace(startFmt, " %s!", "!", 1)
	}
	return fmt.Sprintf(startFmt, firstName)
}

// --- контент по запросу ---

func (r *Router) deliverAsync(ctx context.Context, chatID int64, kind domain.Kind, location string) {
	r.reply(ctx, chatID, fmt.Sprintf(loadingFmt, kind.Title()), nil)
	r.spawn(func() { r.deliverNow(ctx, chatID, kind, location) })
}

func (r *Router) deliverNow(ctx context.Context, chatID int64, kind domain.Kind, location string) {
	err := r.deliverer.Deliver(ctx, r.outbox.Target(chatID), kind, location)
	if err != nil {
		r.log.Error("ошибка запроса контента",
			zap.Int64("chat_id", chatID), zap.String("type", string(kind)),
			zap.String("location", location), zap.Error(err))
		r.reply(ctx, chatID, fmt.Sprintf(contentFailedFmt, kind.Title()), returnKeyboard())
		return
	}
	r.reply(ctx, chatID, backToMenuText, returnKeyboard())
}

func (r *Router) sendNewsFile(ctx context.Context, chatID int64) {
	r.reply(ctx, chatID, fmt.Sprintf(loadingFmt, domain.KindNews.Title()), nil)
	r.spawn(func() {
		f, err := r.content.NewsFile(ctx)
		if err != nil {
			r.log.Error("ошибка подготовки файла новостей", zap.Int64("chat_id", chatID), zap.Error(err))
			r.reply(ctx, chatID, newsFailedText, returnKeyboard())
			return
		}
		if err := r.outbox.sendFile(ctx, chatID, f, returnKeyboard()); err != nil {
			r.log.Error("ошибка отправки файла новостей", zap.Int64("chat_id", chatID), zap.Error(err))
		}
	})
}

func (r *Router) forceNews(ctx context.Context, chatID int64) {
	r.reply(ctx, chatID, newsForceText, nil)
	r.spawn(func() {
		if _, err := r.content.News(ctx, true); err != nil {
			r.log.Error("ошибка обновления новостей", zap.Int64("chat_id", chatID), zap.Error(err))
			r.reply(ctx, chatID, newsFailedText, returnKeyboard())
			return
		}
		r.deliverNow(ctx, chatID, domain.KindNews, "")
	})
}

func (r *Router) sendSign(ctx context.Context, chatID int64, sign string) {
	r.spawn(func() {
		text, err := r.content.Horoscope(ctx, sign)
		if err != nil {
			r.log.Warn("гороскоп знака недоступен", zap.String("sign", sign), zap.Error(err))
			r.reply(ctx, chatID, fmt.Sprintf(contentFailedFmt, domain.KindHoroscope.Title()), returnKeyboard())
			return
		}
		r.replyMode(ctx, chatID, horoscopeHeader+text, tgbotapi.ModeMarkdown, returnKeyboard())
	})
}

// --- расписания ---

func (r *Router) showSchedules(ctx context.Context, chatID int64) {
	entries := r.schedules.List(ctx, chatID)
	r.replyMode(ctx, chatID, formatSchedules(entries)+scheduleMenuText, tgbotapi.ModeMarkdown, scheduleMenuKeyboard())
}

func (r *Router) handleScheduleType(ctx context.Context, chatID int64, raw string) {
	kind, err := domain.ParseKind(raw)
	if err != nil {
		r.log.Warn("неизвестный тип в кнопке", zap.String("type", raw))
		r.reply(ctx, chatID, scheduleAddFail, returnKeyboard())
		return
	}

	switch kind {
	case domain.KindRU:
		r.setPending(chatID, pending{kind: kind})
		r.reply(ctx, chatID, scheduleLocText, ruKeyboard(prefixScheduleLoc, scheduleBackButton()))
	case domain.KindRSS:
		list, err := r.feeds.List(ctx, chatID)
		if err != nil || len(list) == 0 {
			if err != nil {
				r.log.Error("ошибка чтения лент", zap.Int64("chat_id", chatID), zap.Error(err))
			}
			r.reply(ctx, chatID, scheduleNoFeeds, rssMenuKeyboard(nil))
			return
		}
		r.setPending(chatID, pending{kind: kind})
		r.reply(ctx, chatID, scheduleFeedText, scheduleFeedKeyboard(list))
	case domain.KindWeather:
		r.setPending(chatID, pending{step: pendingCity, kind: kind})
		r.reply(ctx, chatID, scheduleCityText, cityKeyboard(r.defaultCity))
	default:
		r.setPending(chatID, pending{kind: kind})
		r.reply(ctx, chatID, scheduleTimeText, timeKeyboard())
	}
}

// handleScheduleLocation запоминает столовую, ленту или город (пустой означает город по умолчанию).
func (r *Router) handleScheduleLocation(ctx context.Context, chatID int64, location string) {
	p := r.getPending(chatID)
	if p == nil || p.kind == "" {
		r.reply(ctx, chatID, expiredText, returnKeyboard())
		return
	}
	p.location = location
	p.step = ""
	r.setPending(chatID, *p)
	r.reply(ctx, chatID, scheduleTimeText, timeKeyboard())
}

func (r *Router) handleScheduleTime(ctx context.Context, chatID int64, value string) {
	p := r.getPending(chatID)
	if p == nil || p.kind == "" {
		r.reply(ctx, chatID, expiredText, returnKeyboard())
		return
	}
	if value == customSuffix {
		p.step = pendingCustomTime
		r.setPending(chatID, *p)
		r.reply(ctx, chatID, customTimeText, customTimeKeyboard())
		return
	}
	r.clearPending(chatID)
	r.addSchedule(ctx, chatID, *p, value)
}

func (r *Router) addSchedule(ctx context.Context, chatID int64, p pending, at string) {
	clk, err := domain.ParseLocalTime(strings.TrimSpace(at))
	if err != nil {
		r.reply(ctx, chatID, invalidTimeText, returnKeyboard())
		return
	}
	if !r.schedules.Add(ctx, chatID, clk.String(), p.kind, p.location) {
		r.reply(ctx, chatID, scheduleAddFail, returnKeyboard())
		return
	}
	r.reply(ctx, chatID, fmt.Sprintf(scheduleAddedFmt, clk.String()), returnKeyboard())
}

func (r *Router) askScheduleRemoval(ctx context.Context, chatID int64) {
	entries := r.schedules.List(ctx, chatID)
	if len(entries) == 0 {
		r.reply(ctx, chatID, nothingToRemove, returnKeyboard())
		return
	}
	r.reply(ctx, chatID, removeSelectText, scheduleRemoveKeyboard(entries))
}

func (r *Router) handleScheduleRemoval(ctx context.Context, chatID int64, value string) {
	if value == allSuffix {
		if r.schedules.RemoveAll(ctx, chatID) {
			r.reply(ctx, chatID, schedulesCleared, returnKeyboard())
		} else {
			r.reply(ctx, chatID, scheduleRemoveErr, returnKeyboard())
		}
		return
	}
	index, err := strconv.Atoi(value)
	if err != nil || !r.schedules.Remove(ctx, chatID, index) {
		r.reply(ctx, chatID, scheduleRemoveErr, returnKeyboard())
		return
	}
	r.reply(ctx, chatID, scheduleRemoved, returnKeyboard())
}

// --- RSS ---

func (r *Router) showFeeds(ctx context.Context, chatID int64) {
	list, err := r.feeds.List(ctx, chatID)
	if err != nil {
		r.log.Error("ошибка чтения лент", zap.Int64("chat_id", chatID), zap.Error(err))
		r.reply(ctx, chatID, fmt.Sprintf(contentFailedFmt, domain.KindRSS.Title()), returnKeyboard())
		return
	}
	status := rssNoneText
	if len(list) > 0 {
		status = fmt.Sprintf(rssCountFmt, len(list))
	}
	r.reply(ctx, chatID, status+rssMenuSuffix, rssMenuKeyboard(list))
}

func (r *Router) handleFeedURL(ctx context.Context, chatID int64, text string) {
	u := strings.TrimSpace(text)
	if err := feeds.ValidateURL(u); err != nil {
		r.reply(ctx, chatID, rssInvalidURL, nil)
		return
	}
	r.setPending(chatID, pending{step: pendingRSSName, url: u})
	r.reply(ctx, chatID, rssAskName, rssNameKeyboard())
}

// saveFeed сохраняет ленту и проверяет её пробной загрузкой; неработающая лента удаляется.
func (r *Router) saveFeed(ctx context.Context, chatID int64, name string) {
	p := r.getPending(chatID)
	if p == nil || p.url == "" {
		r.reply(ctx, chatID, expiredText, rssBackKeyboard())
		return
	}
	r.clearPending(chatID)

	saved, err := r.feeds.Add(ctx, chatID, p.url, name)
	if err != nil {
		r.log.Error("ошибка сохранения ленты", zap.Int64("chat_id", chatID), zap.Error(err))
		r.reply(ctx, chatID, rssSaveFailed, rssBackKeyboard())
		return
	}

	r.reply(ctx, chatID, rssTesting, nil)
	feedURL := p.url
	r.spawn(func() {
		if _, err := r.content.RSS(ctx, feedURL, true); err != nil {
			r.log.Warn("лента не прошла проверку", zap.String("url", feedURL), zap.Error(err))
			if rerr := r.feeds.Remove(ctx, chatID, saved); rerr != nil {
				r.log.Error("не удалось удалить непроверенную ленту", zap.Error(rerr))
			}
			r.reply(ctx, chatID, fmt.Sprintf(rssTestFailedFmt, err), rssBackKeyboard())
			return
		}
		r.reply(ctx, chatID, fmt.Sprintf(rssAddedFmt, saved, feedURL), rssBackKeyboard())
	})
}

func (r *Router) showFeed(ctx context.Context, chatID int64, name string) {
	u, err := r.feeds.Get(ctx, chatID, name)
	if err != nil {
		r.reply(ctx, chatID, rssNotFound, rssBackKeyboard())
		return
	}
	r.reply(ctx, chatID, fmt.Sprintf(rssViewFmt, name, u), rssViewKeyboard(name))
}

func (r *Router) sendFeedFile(ctx context.Context, chatID int64, name string) {
	u, err := r.feeds.Get(ctx, chatID, name)
	if err != nil {
		r.reply(ctx, chatID, rssNotFound, rssBackKeyboard())
		return
	}
	r.spawn(func() {
		f, err := r.content.RSSFile(ctx, u)
		if err != nil {
			r.log.Error("ошибка подготовки файла ленты", zap.String("url", u), zap.Error(err))
			r.reply(ctx, chatID, fmt.Sprintf(contentFailedFmt, domain.KindRSS.Title()), returnKeyboard())
			return
		}
		if err := r.outbox.sendFile(ctx, chatID, f, returnKeyboard()); err != nil {
			r.log.Error("ошибка отправки файла ленты", zap.Error(err))
		}
	})
}

func (r *Router) askFeedRemoval(ctx context.Context, chatID int64) {
	list, err := r.feeds.List(ctx, chatID)
	if err != nil || len(list) == 0 {
		r.reply(ctx, chatID, rssNothingRemove, rssBackKeyboard())
		return
	}
	r.reply(ctx, chatID, rssRemoveSelect, rssRemoveKeyboard(list))
}

func (r *Router) handleFeedRemoval(ctx context.Context, chatID int64, value string) {
	if value == allSuffix {
		if err := r.feeds.RemoveAll(ctx, chatID); err != nil {
			r.reply(ctx, chatID, rssAllRemoveError, rssBackKeyboard())
			return
		}
		r.reply(ctx, chatID, rssAllRemoved, rssBackKeyboard())
		return
	}
	if err := r.feeds.Remove(ctx, chatID, value); err != nil {
		r.reply(ctx, chatID, rssRemoveFailed, rssBackKeyboard())
		return
	}
	r.reply(ctx, chatID, fmt.Sprintf(rssRemovedFmt, value), rssBackKeyboard())
}
