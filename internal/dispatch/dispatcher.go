// Package dispatch связывает сработавшую задачу с процедурой получения контента.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"hcbot/internal/domain"
)

var ErrNoRoutine = errors.New("нет процедуры для типа контента")

type Format int

const (
	Plain Format = iota
	Markdown
	MarkdownV2
)

// File отправляется документом.
type File struct {
	Name    string
	Data    []byte
	Caption string
}

type TextSender interface {
	SendText(ctx context.Context, text string, format Format) error
}

type FileSender interface {
	SendFile(ctx context.Context, f File) error
}

// Target: минимальный контекст доставки, один чат с текстом или файлом.
type Target interface {
	ChatID() int64
	TextSender
	FileSender
}

type Outbox interface {
	Target(chatID int64) Target
}

// Routine получает контент одного типа и сама отправляет его в чат.
type Routine interface {
	Deliver(ctx context.Context, to Target, location string) error
}

type RoutineFunc func(ctx context.Context, to Target, location string) error

func (f RoutineFunc) Deliver(ctx context.Context, to Target, location string) error {
	return f(ctx, to, location)
}

// Table сопоставляет каждому типу ровно одну процедуру.
type Table map[domain.Kind]Routine

// Check требует, чтобы таблица покрывала ровно domain.Kinds().
func (t Table) Check() error {
	for _, k := range domain.Kinds() {
		if t[k] == nil {
			return fmt.Errorf("%w: %s", ErrNoRoutine, k)
		}
	}
	for k := range t {
		if _, err := domain.ParseKind(string(k)); err != nil {
			return err
		}
	}
	return nil
}

const noticeTimeout = 30 * time.Second

type Dispatcher struct {
	table   Table
	outbox  Outbox
	timeout time.Duration
	log     *zap.Logger
}

func New(table Table, outbox Outbox, timeout time.Duration, log *zap.Logger) (*Dispatcher, error) {
	if err := table.Check(); err != nil {
		return nil, err
	}
	return &Dispatcher{
		table:   table,
		outbox:  outbox,
		timeout: timeout,
		log:     log.Named("dispatch"),
	}, nil
}

// Dispatch вызывается сработавшей задачей. Ошибки не возвращаются: они логируются,
// а чат получает короткое уведомление. Повторов нет, следующая попытка будет завтра.
func (d *Dispatcher) Dispatch(ctx context.Context, chatID int64, kind domain.Kind, location string) {
	log := d.log.With(
		zap.String("run_id", uuid.NewString()),
		zap.Int64("chat_id", chatID),
		zap.String("type", string(kind)),
		zap.String("location", location),
	)
	to := d.outbox.Target(chatID)

	started := time.Now()
	err := d.Deliver(ctx, to, kind, location)
	if err == nil {
		log.Info("рассылка отправлена", zap.Duration("took", time.Since(started)))
		return
	}

	log.Error("ошибка рассылки", zap.Error(err), zap.Duration("took", time.Since(started)))

	nctx, cancel := context.WithTimeout(context.Background(), noticeTimeout)
	defer cancel()
	if err := to.SendText(nctx, FailureNotice(kind), Plain); err != nil {
		log.Error("не удалось отправить уведомление об ошибке", zap.Error(err))
	}
}

// Deliver запускает процедуру типа kind с таймаутом; паника превращается в ошибку.
func (d *Dispatcher) Deliver(ctx context.Context, to Target, kind domain.Kind, location string) (err error) {
	routine, ok := d.table[kind]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoRoutine, kind)
	}
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("паника в процедуре %s: %v\n%s", kind, r, debug.Stack())
		}
	}()
	return routine.Deliver(ctx, to, location)
}

func FailureNotice(kind domain.Kind) string {
	return fmt.Sprintf("❌ Não foi possível enviar o agendamento de %s. Tentaremos novamente amanhã.", kind.Title())
}
