package scheduler

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"hcbot/internal/domain"
)

// Timer описывает то, что нужно реестру от cron. *cron.Cron подходит как есть.
type Timer interface {
	AddFunc(spec string, cmd func()) (cron.EntryID, error)
	Remove(id cron.EntryID)
}

// Dispatcher вызывается сработавшей задачей.
type Dispatcher interface {
	Dispatch(ctx context.Context, chatID int64, kind domain.Kind, location string)
}

// Job описывает живую ежедневную задачу. В файл не сохраняется.
type Job struct {
	ID     cron.EntryID
	Name   string
	ChatID int64
	Entry  domain.Entry
	At     domain.Clock // время срабатывания в UTC

	cancelled *atomic.Bool
}

// Registry хранит таблицу живых задач процесса.
type Registry struct {
	timer      Timer
	conv       *Converter
	dispatcher Dispatcher
	log        *zap.Logger

	mu   sync.Mutex
	jobs map[cron.EntryID]Job
}

func NewRegistry(timer Timer, conv *Converter, dispatcher Dispatcher, log *zap.Logger) *Registry {
	return &Registry{
		timer:      timer,
		conv:       conv,
		dispatcher: dispatcher,
		log:        log.Named("registry"),
		jobs:       make(map[cron.EntryID]Job),
	}
}

// Install регистрирует ежедневную задачу для записи. Повторный вызов для той же записи
// создаёт вторую независимую задачу.
func (r *Registry) Install(chatID int64, e domain.Entry) (Job, error) {
	if err := e.Validate(); err != nil {
		return Job{}, err
	}
	at, err := r.conv.ToReference(e.Time)
	if err != nil {
		return Job{}, err
	}

	job := Job{
		Name:      domain.JobName(chatID, e),
		ChatID:    chatID,
		Entry:     e,
		At:        at,
		cancelled: new(atomic.Bool),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	fired := job
	id, err := r.timer.AddFunc(DailySpec(at), func() { r.fire(fired) })
	if err != nil {
		return Job{}, fmt.Errorf("не удалось добавить задачу в cron: %w", err)
	}
	job.ID = id
	r.jobs[id] = job

	r.log.Debug("задача установлена",
		zap.String("job", job.Name),
		zap.String("utc", at.String()),
	)
	return job, nil
}

func (r *Registry) fire(job Job) {
	if job.cancelled.Load() {
		return
	}
	r.log.Info("срабатывание задачи", zap.String("job", job.Name))
	r.dispatcher.Dispatch(context.Background(), job.ChatID, job.Entry.Type, job.Entry.Location)
}

// Cancel снимает все задачи с этим именем. Несуществующее имя не ошибка.
func (r *Registry) Cancel(name string) int {
	return r.cancelWhere(-1, func(j Job) bool { return j.Name == name })
}

// CancelOne снимает одну задачу с этим именем (для дубликатов).
func (r *Registry) CancelOne(name string) bool {
	return r.cancelWhere(1, func(j Job) bool { return j.Name == name }) == 1
}

// CancelChat снимает все задачи чата.
func (r *Registry) CancelChat(chatID int64) int {
	prefix := domain.ChatPrefix(chatID)
	return r.cancelWhere(-1, func(j Job) bool { return strings.HasPrefix(j.Name, prefix) })
}

func (r *Registry) cancelWhere(limit int, match func(Job) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]cron.EntryID, 0)
	for id, j := range r.jobs {
		if match(j) {
			ids = append(ids, id)
		}
	}
	// самые старые первыми, чтобы CancelOne был детерминированным
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if limit >= 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	for _, id := range ids {
		j := r.jobs[id]
		j.cancelled.Store(true)
		r.timer.Remove(id)
		delete(r.jobs, id)
		r.log.Debug("задача снята", zap.String("job", j.Name))
	}
	return len(ids)
}

// Rehydrate ставит по задаче на каждую запись документа. Битые записи пропускаются.
func (r *Registry) Rehydrate(doc *domain.Document) (installed, skipped int) {
	for _, chat := range doc.Chats() {
		entries := doc.Entries(chat)
		chatID, err := strconv.ParseInt(chat, 10, 64)
		if err != nil {
			r.log.Warn("пропуск чата с неверным id",
				zap.String("chat", chat),
				zap.Int("entries", len(entries)),
				zap.Error(err),
			)
			skipped += len(entries)
			continue
		}
		for i, e := range entries {
			if _, err := r.Install(chatID, e); err != nil {
				r.log.Warn("пропуск записи расписания",
					zap.Int64("chat_id", chatID),
					zap.Int("index", i),
					zap.String("time", e.Time),
					zap.String("type", string(e.Type)),
					zap.Error(err),
				)
				skipped++
				continue
			}
			installed++
		}
	}
	r.log.Info("расписания восстановлены",
		zap.Int("installed", installed),
		zap.Int("skipped", skipped),
	)
	return installed, skipped
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

// Names возвращает отсортированные имена живых задач (с повторами для дубликатов).
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, j.Name)
	}
	sort.Strings(out)
	return out
}

// Jobs возвращает снимок живых задач.
func (r *Registry) Jobs() []Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, j)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	return out
}
