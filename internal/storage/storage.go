// Package storage хранит именованные JSON-документы целиком: файл или строка в Postgres.
// Частичной записи нет, последний писатель выигрывает.
package storage

import (
	"context"
	"errors"
)

var ErrDocumentNotFound = errors.New("документ не найден")

type Backend interface {
	// Read возвращает ErrDocumentNotFound, если документ ещё ни разу не сохранялся.
	Read(ctx context.Context, name string) ([]byte, error)
	// Write полностью перезаписывает документ.
	Write(ctx context.Context, name string, data []byte) error
	Close() error
}
