package main

import (
	"context"
	"flag"
	"os"

	"go.uber.org/zap"

	_ "time/tzdata"

	"hcbot/internal/app"
	"hcbot/internal/config"
	"hcbot/internal/logger"
)

func main() {
	path := flag.String("config", "config.yml", "путь к файлу конфигурации")
	flag.Parse()

	cfg, err := config.Load(*path)
	if err != nil {
		// логгера ещё нет
		_, _ = os.Stderr.WriteString("ошибка конфигурации: " + err.Error() + "\n")
		os.Exit(2)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		_, _ = os.Stderr.WriteString("ошибка создания логгера: " + err.Error() + "\n")
		os.Exit(2)
	}
	defer func() { _ = log.Sync() }()
	cfg.Print(log)

	application, err := app.New(cfg, log)
	if err != nil {
		log.Fatal("ошибка инициализации", zap.Error(err))
	}
	if err := application.Run(context.Background()); err != nil {
		log.Fatal("ошибка работы", zap.Error(err))
	}
}
