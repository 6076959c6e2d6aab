// Package schedule меняет расписания: документ в хранилище и живые задачи
// меняются вместе, сначала хранилище, потом задачи.
package schedule

import (
	"context"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"hcbot/internal/domain"
	"hcbot/internal/scheduler"
)

// Jobs: часть реестра задач, которая нужна сервису.
type Jobs interface {
	Install(chatID int64, e domain.Entry) (scheduler.Job, error)
	CancelOne(name string) bool
	CancelChat(chatID int64) int
	Rehydrate(doc *domain.Document) (installed, skipped int)
}

type Service struct {
	repo *Repository
	jobs Jobs
	log  *zap.Logger

	// Каждая мутация: перечитать документ, изменить, сохранить, поправить задачи.
	// Мьютекс не даёт двум мутациям перемешаться между чтением и записью.
	mu      sync.Mutex
	started bool
}

func NewService(repo *Repository, jobs Jobs, log *zap.Logger) *Service {
	return &Service{repo: repo, jobs: jobs, log: log.Named("schedule")}
}

// Start восстанавливает задачи из хранилища. Вызывается один раз до приёма обновлений.
func (s *Service) Start(ctx context.Context) (installed, skipped int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		s.log.Warn("повторный Start проигнорирован")
		return 0, 0
	}
	s.started = true

	doc, err := s.repo.Load(ctx)
	if err != nil {
		s.log.Error("не удалось прочитать расписания, стартуем без задач", zap.Error(err))
	}
	return s.jobs.Rehydrate(doc)
}

// Add проверяет время, дописывает запись, сохраняет документ и ставит задачу.
// false означает ошибку проверки или сохранения, подробности в логе.
func (s *Service) Add(ctx context.Context, chatID int64, at string, kind domain.Kind, location string) bool {
	log := s.log.With(zap.Int64("chat_id", chatID), zap.String("time", at), zap.String("type", string(kind)))

	clk, err := domain.ParseLocalTime(at)
	if err != nil {
		log.Info("неверное время", zap.Error(err))
		return false
	}
	if !kind.Parameterized() {
		location = ""
	}
	e := domain.Entry{Time: clk.String(), Type: kind, Location: location}
	if err := e.Validate(); err != nil {
		log.Info("неверная запись", zap.Error(err))
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.repo.Load(ctx)
	if err != nil {
		log.Error("ошибка загрузки расписаний", zap.Error(err))
		return false
	}
	chat := chatKey(chatID)
	doc.Append(chat, e)
	if err := s.repo.Save(ctx, doc); err != nil {
		log.Error("ошибка сохранения расписаний", zap.Error(err))
		return false
	}

	if _, err := s.jobs.Install(chatID, e); err != nil {
		// запись без задачи откатываем
		log.Error("не удалось поставить задачу, откат записи", zap.Error(err))
		if _, rerr := doc.RemoveAt(chat, len(doc.Entries(chat))-1); rerr == nil {
			if serr := s.repo.Save(ctx, doc); serr != nil {
				log.Error("ошибка отката записи", zap.Error(serr))
			}
		}
		return false
	}

	log.Info("расписание добавлено")
	return true
}

// Remove удаляет запись по индексу в списке чата и снимает её задачу.
func (s *Service) Remove(ctx context.Context, chatID int64, index int) bool {
	log := s.log.With(zap.Int64("chat_id", chatID), zap.Int("index", index))

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.repo.Load(ctx)
	if err != nil {
		log.Error("ошибка загрузки расписаний", zap.Error(err))
		return false
	}
	removed, err := doc.RemoveAt(chatKey(chatID), index)
	if err != nil {
		log.Info("удаление отклонено", zap.Error(err))
		return false
	}
	if err := s.repo.Save(ctx, doc); err != nil {
		log.Error("ошибка сохранения расписаний", zap.Error(err))
		return false
	}

	name := domain.JobName(chatID, removed)
	if !s.jobs.CancelOne(name) {
		// например, запись была пропущена при восстановлении
		log.Warn("задача для удалённой записи не найдена", zap.String("job", name))
	}
	log.Info("расписание удалено", zap.String("job", name))
	return true
}

// RemoveAll очищает список чата и снимает все его задачи.
func (s *Service) RemoveAll(ctx context.Context, chatID int64) bool {
	log := s.log.With(zap.Int64("chat_id", chatID))

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.repo.Load(ctx)
	if err != nil {
		log.Error("ошибка загрузки расписаний", zap.Error(err))
		return false
	}
	removed := doc.Clear(chatKey(chatID))
	if err := s.repo.Save(ctx, doc); err != nil {
		log.Error("ошибка сохранения расписаний", zap.Error(err))
		return false
	}
	cancelled := s.jobs.CancelChat(chatID)
	log.Info("все расписания чата удалены", zap.Int("entries", len(removed)), zap.Int("jobs", cancelled))
	return true
}

// List возвращает записи чата в порядке отображения (индекс = позиция для Remove).
func (s *Service) List(ctx context.Context, chatID int64) []domain.Entry {
	doc, err := s.repo.Load(ctx)
	if err != nil {
		s.log.Error("ошибка загрузки расписаний", zap.Int64("chat_id", chatID), zap.Error(err))
		return nil
	}
	return doc.Entries(chatKey(chatID))
}

func chatKey(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}
