package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// PostgresConfig: параметры подключения к базе с документами.
type PostgresConfig struct {
	Host     string `yaml:"host" envconfig:"HOST"`
	Port     string `yaml:"port" envconfig:"PORT"`
	User     string `yaml:"user" envconfig:"USER"`
	Password string `yaml:"password" envconfig:"PASSWORD"`
	DBName   string `yaml:"name" envconfig:"NAME"`
	SSLMode  string `yaml:"sslmode" envconfig:"SSLMODE"`
}

func (c PostgresConfig) DSN() string {
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, sslmode)
}

const createDocumentsTable = `
	CREATE TABLE IF NOT EXISTS documents (
		name       TEXT PRIMARY KEY,
		body       TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`

// PostgresBackend хранит документ одной строкой таблицы documents.
// body хранится как TEXT, а не JSONB: jsonb переупорядочивает ключи.
type PostgresBackend struct {
	db *sqlx.DB
}

func OpenPostgres(ctx context.Context, cfg PostgresConfig) (*PostgresBackend, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к базе: %w", err)
	}
	if _, err := db.ExecContext(ctx, createDocumentsTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ошибка создания таблицы documents: %w", err)
	}
	return &PostgresBackend{db: db}, nil
}

func (b *PostgresBackend) Read(ctx context.Context, name string) ([]byte, error) {
	var body string
	err := b.db.GetContext(ctx, &body, `SELECT body FROM documents WHERE name = $1`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения документа %s: %w", name, err)
	}
	return []byte(body), nil
}

func (b *PostgresBackend) Write(ctx context.Context, name string, data []byte) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO documents (name, body, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE SET
			body       = excluded.body,
			updated_at = excluded.updated_at`,
		name, string(data),
	)
	if err != nil {
		return fmt.Errorf("ошибка записи документа %s: %w", name, err)
	}
	return nil
}

func (b *PostgresBackend) Close() error {
	return b.db.Close()
}
