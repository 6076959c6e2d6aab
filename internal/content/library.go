// Package content оборачивает внешние скрипты, которые готовят контент для рассылки.
package content

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"hcbot/internal/dispatch"
	"hcbot/internal/domain"
)

var (
	ErrNoOutput         = errors.New("скрипт не создал результат")
	ErrSignNotFound     = errors.New("знак не найден в гороскопе")
	ErrLocationRequired = errors.New("не указан location")
)

// Paths: путь к скрипту для каждого типа контента.
type Paths map[domain.Kind]string

// DefaultPaths раскладывает скрипты относительно корня проекта.
func DefaultPaths(dir string) Paths {
	return Paths{
		domain.KindNews:      filepath.Join(dir, "hcnews.sh"),
		domain.KindHoroscope: filepath.Join(dir, "scripts", "horoscopo.sh"),
		domain.KindWeather:   filepath.Join(dir, "scripts", "weather.sh"),
		domain.KindExchange:  filepath.Join(dir, "scripts", "exchange.sh"),
		domain.KindBicho:     filepath.Join(dir, "scripts", "bicho.sh"),
		domain.KindRU:        filepath.Join(dir, "scripts", "UFPR", "ru.sh"),
		domain.KindRSS:       filepath.Join(dir, "scripts", "rss.sh"),
	}
}

// FeedSource разрешает имя ленты чата в URL.
type FeedSource interface {
	Get(ctx context.Context, chatID int64, name string) (string, error)
}

type Library struct {
	exec        Executor
	paths       Paths
	cache       *Cache
	feeds       FeedSource
	defaultCity string
	log         *zap.Logger
}

func NewLibrary(exec Executor, paths Paths, cache *Cache, feeds FeedSource, defaultCity string, log *zap.Logger) *Library {
	return &Library{
		exec:        exec,
		paths:       paths,
		cache:       cache,
		feeds:       feeds,
		defaultCity: defaultCity,
		log:         log.Named("content"),
	}
}

// News возвращает сводку новостей за сегодня; скрипт запускается, только если
// файла дня ещё нет или force.
func (l *Library) News(ctx context.Context, force bool) (string, error) {
	if !force {
		if data, ok, err := l.cache.Read(".news"); err != nil {
			return "", err
		} else if ok {
			return string(data), nil
		}
	}
	if _, err := l.exec.Run(ctx, l.paths[domain.KindNews], "-f", "-sa", "-s"); err != nil {
		return "", err
	}
	data, ok, err := l.cache.Read(".news")
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoOutput, l.cache.Path(".news"))
	}
	return string(data), nil
}

func (l *Library) NewsFile(ctx context.Context) (dispatch.File, error) {
	text, err := l.News(ctx, false)
	if err != nil {
		return dispatch.File{}, err
	}
	return dispatch.File{
		Name:    "HCNEWS" + l.cache.Today() + ".txt",
		Data:    []byte(text),
		Caption: "📰 Notícias do dia",
	}, nil
}

// Horoscope возвращает гороскоп дня целиком или блок одного знака (sign: код из domain.ZodiacSigns).
func (l *Library) Horoscope(ctx context.Context, sign string) (string, error) {
	data, ok, err := l.cache.Read(".hrcp")
	if err != nil {
		return "", err
	}
	if !ok {
		if _, err := l.exec.Run(ctx, l.paths[domain.KindHoroscope], "-s"); err != nil {
			return "", err
		}
		if data, ok, err = l.cache.Read(".hrcp"); err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrNoOutput, l.cache.Path(".hrcp"))
		}
	}

	text := string(data)
	if sign == "" {
		return text, nil
	}

	// заголовок знака идёт строкой выше маркера
	marker := "📌 " + strings.ToLower(sign)
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if !strings.Contains(strings.ToLower(line), marker) {
			continue
		}
		if i == 0 {
			return line, nil
		}
		return lines[i-1] + "\n" + line, nil
	}
	return "", fmt.Errorf("%w: %s", ErrSignNotFound, sign)
}

// Weather возвращает прогноз; пустой город заменяется городом по умолчанию.
func (l *Library) Weather(ctx context.Context, city string) (string, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		city = l.defaultCity
	}
	return l.exec.Run(ctx, l.paths[domain.KindWeather], city, "--telegram")
}

func (l *Library) Exchange(ctx context.Context) (string, error) {
	return l.exec.Run(ctx, "bash", l.paths[domain.KindExchange])
}

func (l *Library) Bicho(ctx context.Context) (string, error) {
	return l.exec.Run(ctx, "bash", l.paths[domain.KindBicho])
}

// RU возвращает меню столовой. Кешированием занимается сам ru.sh.
func (l *Library) RU(ctx context.Context, site string) (string, error) {
	if site == "" {
		return "", fmt.Errorf("%w: столовая", ErrLocationRequired)
	}
	return l.exec.Run(ctx, l.paths[domain.KindRU], "-r", site)
}

// RSS возвращает обработанную ленту; результат кешируется на день по хешу URL.
func (l *Library) RSS(ctx context.Context, feedURL string, force bool) (string, error) {
	suffix := "_rss_" + URLHash(feedURL) + ".txt"
	if !force {
		if data, ok, err := l.cache.Read(suffix); err != nil {
			return "", err
		} else if ok {
			return string(data), nil
		}
	}

	out, err := l.exec.Run(ctx, "bash", l.paths[domain.KindRSS], "-l", "-f", feedURL)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("%w: %s", ErrNoOutput, feedURL)
	}
	if err := l.cache.Write(suffix, []byte(out)); err != nil {
		l.log.Warn("не удалось записать кеш ленты", zap.String("url", feedURL), zap.Error(err))
	}
	return out, nil
}

func (l *Library) RSSFile(ctx context.Context, feedURL string) (dispatch.File, error) {
	text, err := l.RSS(ctx, feedURL, false)
	if err != nil {
		return dispatch.File{}, err
	}
	host := "custom"
	if u, err := url.Parse(feedURL); err == nil && u.Host != "" {
		host = u.Host
	}
	return dispatch.File{
		Name: fmt.Sprintf("%s_%s_%s.txt", host, l.cache.Today(), URLHash(feedURL)),
		Data: []byte(text),
	}, nil
}

// FeedURL разрешает имя ленты чата.
func (l *Library) FeedURL(ctx context.Context, chatID int64, name string) (string, error) {
	return l.feeds.Get(ctx, chatID, name)
}
