// Package feeds хранит RSS-ленты чатов: документ rss_feeds вида {чат: {имя: url}}.
package feeds

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"hcbot/internal/storage"
)

const DocumentName = "rss_feeds"

var (
	ErrFeedNotFound = errors.New("лента не найдена")
	ErrInvalidURL   = errors.New("адрес ленты должен начинаться с http:// или https://")
)

type Feed struct {
	Name string
	URL  string
}

// chatFeeds читает и новый формат {имя: url}, и старый (одна строка с адресом).
type chatFeeds map[string]string

func (c *chatFeeds) UnmarshalJSON(data []byte) error {
	if strings.TrimSpace(string(data)) == "null" {
		*c = nil
		return nil
	}
	var legacy string
	if err := json.Unmarshal(data, &legacy); err == nil {
		*c = chatFeeds{"Default": legacy}
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*c = m
	return nil
}

type Store struct {
	backend storage.Backend
	log     *zap.Logger
	now     func() time.Time

	mu sync.Mutex
}

func NewStore(backend storage.Backend, log *zap.Logger) *Store {
	return &Store{backend: backend, log: log.Named("feeds"), now: time.Now}
}

func ValidateURL(u string) error {
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		return fmt.Errorf("%w: %q", ErrInvalidURL, u)
	}
	return nil
}

func (s *Store) load(ctx context.Context) (map[string]chatFeeds, error) {
	data, err := s.backend.Read(ctx, DocumentName)
	if errors.Is(err, storage.ErrDocumentNotFound) {
		return map[string]chatFeeds{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения лент: %w", err)
	}
	doc := map[string]chatFeeds{}
	if err := json.Unmarshal(data, &doc); err != nil {
		s.log.Warn("документ лент повреждён, считаем пустым", zap.Error(err))
		return map[string]chatFeeds{}, nil
	}
	return doc, nil
}

func (s *Store) save(ctx context.Context, doc map[string]chatFeeds) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	if err := s.backend.Write(ctx, DocumentName, data); err != nil {
		return fmt.Errorf("ошибка сохранения лент: %w", err)
	}
	return nil
}

// Add сохраняет ленту и возвращает итоговое имя. Пустое имя заменяется хостом
// адреса, при совпадении добавляется суффикс _N.
func (s *Store) Add(ctx context.Context, chatID int64, feedURL, name string) (string, error) {
	if err := ValidateURL(feedURL); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	chat := strconv.FormatInt(chatID, 10)
	feeds := doc[chat]
	if feeds == nil {
		feeds = chatFeeds{}
		doc[chat] = feeds
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = s.autoName(feedURL, feeds)
	}
	feeds[name] = feedURL

	if err := s.save(ctx, doc); err != nil {
		return "", err
	}
	s.log.Info("лента добавлена", zap.Int64("chat_id", chatID), zap.String("name", name))
	return name, nil
}

func (s *Store) autoName(feedURL string, existing chatFeeds) string {
	u, err := url.Parse(feedURL)
	if err != nil || u.Host == "" {
		return "feed_" + s.now().Format("20060102150405")
	}
	name := u.Host
	for i := 1; ; i++ {
		if _, taken := existing[name]; !taken {
			return name
		}
		name = fmt.Sprintf("%s_%d", u.Host, i)
	}
}

// Remove удаляет одну ленту; чат без лент пропадает из документа.
func (s *Store) Remove(ctx context.Context, chatID int64, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return err
	}
	chat := strconv.FormatInt(chatID, 10)
	if _, ok := doc[chat][name]; !ok {
		return fmt.Errorf("%w: %s", ErrFeedNotFound, name)
	}
	delete(doc[chat], name)
	if len(doc[chat]) == 0 {
		delete(doc, chat)
	}
	return s.save(ctx, doc)
}

func (s *Store) RemoveAll(ctx context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return err
	}
	chat := strconv.FormatInt(chatID, 10)
	if _, ok := doc[chat]; !ok {
		return ErrFeedNotFound
	}
	delete(doc, chat)
	return s.save(ctx, doc)
}

// Get возвращает адрес ленты. Пустое имя допустимо, только когда у чата ровно одна лента.
func (s *Store) Get(ctx context.Context, chatID int64, name string) (string, error) {
	doc, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	feeds := doc[strconv.FormatInt(chatID, 10)]
	if name == "" {
		if len(feeds) == 1 {
			for _, u := range feeds {
				return u, nil
			}
		}
		return "", fmt.Errorf("%w: имя не указано, лент %d", ErrFeedNotFound, len(feeds))
	}
	u, ok := feeds[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrFeedNotFound, name)
	}
	return u, nil
}

// List возвращает ленты чата, отсортированные по имени.
func (s *Store) List(ctx context.Context, chatID int64) ([]Feed, error) {
	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	feeds := doc[strconv.FormatInt(chatID, 10)]
	out := make([]Feed, 0, len(feeds))
	for name, u := range feeds {
		out = append(out, Feed{Name: name, URL: u})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
