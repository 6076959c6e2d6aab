package content

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

var ErrScriptFailed = errors.New("ошибка выполнения скрипта")

// Executor запускает внешнюю команду и возвращает её stdout.
type Executor interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// Runner запускает скрипты из рабочего каталога бота.
type Runner struct {
	dir     string
	timeout time.Duration
	env     []string
	log     *zap.Logger
}

func NewRunner(dir string, timeout time.Duration, log *zap.Logger) *Runner {
	return &Runner{
		dir:     dir,
		timeout: timeout,
		env:     os.Environ(),
		log:     log.Named("runner"),
	}
}

// Run выполняет команду с таймаутом. Ненулевой код выхода даёт ErrScriptFailed
// с очищенным stderr (или stdout, если stderr пуст).
func (r *Runner) Run(ctx context.Context, name string, args ...string) (string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.dir
	cmd.Env = r.env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	started := time.Now()
	err := cmd.Run()
	r.log.Debug("скрипт выполнен",
		zap.String("cmd", name),
		zap.Strings("args", args),
		zap.Duration("took", time.Since(started)),
		zap.Error(err),
	)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%s: %w", name, ctx.Err())
		}
		out := strings.TrimSpace(CleanANSI(stderr.String()))
		if out == "" {
			out = strings.TrimSpace(CleanANSI(stdout.String()))
		}
		return "", fmt.Errorf("%w: %s: %v, вывод: %s", ErrScriptFailed, name, err, out)
	}
	return CleanANSI(stdout.String()), nil
}
