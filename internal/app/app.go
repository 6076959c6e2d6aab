package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"hcbot/internal/config"
	"hcbot/internal/content"
	"hcbot/internal/dispatch"
	"hcbot/internal/domain"
	"hcbot/internal/feeds"
	"hcbot/internal/schedule"
	"hcbot/internal/scheduler"
	"hcbot/internal/storage"
	"hcbot/internal/telegram"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	cfg *config.Config
	log *zap.Logger
	bot *tgbotapi.BotAPI
}

func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	bot, err := telegram.NewBotAPI(cfg.Telegram.Token, cfg.Telegram.InsecureSkipVerify)
	if err != nil {
		return nil, err
	}
	return &App{cfg: cfg, log: log, bot: bot}, nil
}

// Run поднимает хранилище и планировщик, восстанавливает задачи и обрабатывает
// обновления до SIGINT/SIGTERM.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.log.Info("запуск hcbot", zap.String("bot", a.bot.Self.UserName))

	backend, err := OpenBackend(ctx, a.cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			a.log.Warn("ошибка закрытия хранилища", zap.Error(err))
		}
	}()

	loc, err := a.cfg.Location()
	if err != nil {
		return err
	}
	paths, err := a.cfg.ScriptPaths()
	if err != nil {
		return err
	}
	CheckScripts(paths, a.log)

	feedStore := feeds.NewStore(backend, a.log)
	runner := content.NewRunner(a.cfg.Scripts.Dir, a.cfg.Scripts.Timeout, a.log)
	cache := content.NewCache(a.cfg.DataDir, nil)
	lib := content.NewLibrary(runner, paths, cache, feedStore, a.cfg.Weather.DefaultCity, a.log)

	disp, err := dispatch.New(lib.Table(), telegram.NewOutbox(a.bot, a.log), a.cfg.Dispatch.Timeout, a.log)
	if err != nil {
		return err
	}

	timer := scheduler.NewCron(a.log)
	registry := scheduler.NewRegistry(timer, scheduler.NewConverter(loc, time.Now), disp, a.log)
	svc := schedule.NewService(schedule.NewRepository(backend, a.log), registry, a.log)

	installed, skipped := svc.Start(ctx)
	a.log.Info("расписания восстановлены", zap.Int("installed", installed), zap.Int("skipped", skipped))
	timer.Start()

	router := telegram.NewRouter(a.bot, a.log, telegram.RouterDeps{
		Schedules:   svc,
		Feeds:       feedStore,
		Content:     lib,
		Deliverer:   disp,
		DefaultCity: a.cfg.Weather.DefaultCity,
	})

	var srv *http.Server
	if a.cfg.HTTPAddr != "" {
		srv = healthServer(a.cfg.HTTPAddr, registry)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.log.Error("ошибка http-сервера", zap.Error(err))
			}
		}()
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updCh := a.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			a.log.Info("получен сигнал завершения")
			a.bot.StopReceivingUpdates()

			// cron.Stop не прерывает уже идущие рассылки, ждём их не дольше таймаута рассылки.
			select {
			case <-timer.Stop().Done():
			case <-time.After(a.cfg.Dispatch.Timeout):
				a.log.Warn("рассылки не завершились вовремя")
			}
			router.Wait()

			if srv != nil {
				shCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				err := srv.Shutdown(shCtx)
				cancel()
				if err != nil {
					a.log.Warn("ошибка остановки http-сервера", zap.Error(err))
				}
			}
			return nil

		case upd := <-updCh:
			router.HandleUpdate(ctx, upd)
		}
	}
}

// OpenBackend открывает хранилище документов по storage.driver.
func OpenBackend(ctx context.Context, cfg *config.Config) (storage.Backend, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		b, err := storage.OpenPostgres(ctx, cfg.Storage.Postgres)
		if err != nil {
			return nil, err
		}
		return b, nil
	case config.DriverFile:
		b, err := storage.NewFileBackend(cfg.Storage.Dir)
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("неизвестный storage.driver %q", cfg.Storage.Driver)
	}
}

// CheckScripts предупреждает об отсутствующих и неисполняемых скриптах.
// Бот всё равно стартует: остальные типы рассылок продолжают работать.
func CheckScripts(paths content.Paths, log *zap.Logger) (missing int) {
	kinds := make([]string, 0, len(paths))
	for k := range paths {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)

	for _, k := range kinds {
		p := paths[domain.Kind(k)]
		info, err := os.Stat(p)
		switch {
		case err != nil:
			log.Warn("скрипт не найден", zap.String("type", k), zap.String("path", p), zap.Error(err))
			missing++
		case info.IsDir():
			log.Warn("вместо скрипта каталог", zap.String("type", k), zap.String("path", p))
			missing++
		case info.Mode().Perm()&0o111 == 0:
			// часть скриптов запускается напрямую, без bash
			log.Warn("скрипт не исполняемый", zap.String("type", k), zap.String("path", p))
		}
	}
	return missing
}

func healthServer(addr string, registry *scheduler.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, "ok jobs=%d\n", registry.Len())
	})
	return &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}
