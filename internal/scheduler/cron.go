package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"hcbot/internal/domain"
)

var _ Timer = (*cron.Cron)(nil)

// NewCron создаёт cron, который сравнивает время в UTC (опорная зона).
// Паника в задаче логируется и не останавливает остальные задачи.
func NewCron(log *zap.Logger) *cron.Cron {
	l := cronLogger{s: log.Named("cron").Sugar()}
	return cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(l),
		cron.WithChain(cron.Recover(l)),
	)
}

// DailySpec превращает время суток в спецификацию cron: "08:00" → "0 8 * * *" (минута, час).
func DailySpec(at domain.Clock) string {
	return fmt.Sprintf("%d %d * * *", at.Minute, at.Hour)
}

// cronLogger направляет внутренние сообщения cron в zap.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
