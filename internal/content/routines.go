package content

import (
	"context"

	"hcbot/internal/dispatch"
	"hcbot/internal/domain"
)

// Table собирает процедуры доставки для всех типов контента.
func (l *Library) Table() dispatch.Table {
	return dispatch.Table{
		domain.KindNews:      dispatch.RoutineFunc(l.deliverNews),
		domain.KindHoroscope: dispatch.RoutineFunc(l.deliverHoroscope),
		domain.KindWeather:   dispatch.RoutineFunc(l.deliverWeather),
		domain.KindExchange:  dispatch.RoutineFunc(l.deliverExchange),
		domain.KindBicho:     dispatch.RoutineFunc(l.deliverBicho),
		domain.KindRU:        dispatch.RoutineFunc(l.deliverRU),
		domain.KindRSS:       dispatch.RoutineFunc(l.deliverRSS),
	}
}

func (l *Library) deliverNews(ctx context.Context, to dispatch.Target, _ string) error {
	text, err := l.News(ctx, false)
	if err != nil {
		return err
	}
	return sendChunks(ctx, to, "📰 Notícias do dia\n\n"+text, dispatch.Plain)
}

func (l *Library) deliverHoroscope(ctx context.Context, to dispatch.Target, _ string) error {
	text, err := l.Horoscope(ctx, "")
	if err != nil {
		return err
	}
	return to.SendText(ctx, Truncate("🔮 *Horóscopo do Dia* 🔮\n\n"+text, MaxMessage), dispatch.Markdown)
}

func (l *Library) deliverWeather(ctx context.Context, to dispatch.Target, city string) error {
	text, err := l.Weather(ctx, city)
	if err != nil {
		return err
	}
	return to.SendText(ctx, Truncate(text, MaxMessage), dispatch.Markdown)
}

func (l *Library) deliverExchange(ctx context.Context, to dispatch.Target, _ string) error {
	text, err := l.Exchange(ctx)
	if err != nil {
		return err
	}
	return to.SendText(ctx, Truncate(text, MaxMessage), dispatch.Markdown)
}

func (l *Library) deliverBicho(ctx context.Context, to dispatch.Target, _ string) error {
	text, err := l.Bicho(ctx)
	if err != nil {
		return err
	}
	return to.SendText(ctx, Truncate(text, MaxMessage), dispatch.Markdown)
}

func (l *Library) deliverRU(ctx context.Context, to dispatch.Target, site string) error {
	text, err := l.RU(ctx, site)
	if err != nil {
		return err
	}
	return to.SendText(ctx, Truncate(text, MaxMessage), dispatch.Markdown)
}

func (l *Library) deliverRSS(ctx context.Context, to dispatch.Target, name string) error {
	feedURL, err := l.FeedURL(ctx, to.ChatID(), name)
	if err != nil {
		return err
	}
	text, err := l.RSS(ctx, feedURL, false)
	if err != nil {
		return err
	}
	if name != "" {
		text = "📰 Feed: " + name + "\n\n" + text
	}
	return sendChunks(ctx, to, EscapeMarkdownV2(text), dispatch.MarkdownV2)
}

func sendChunks(ctx context.Context, to dispatch.Target, text string, format dispatch.Format) error {
	for _, chunk := range SplitMessage(text, MaxChunk) {
		if err := to.SendText(ctx, chunk, format); err != nil {
			return err
		}
	}
	return nil
}
