package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"hcbot/internal/domain"
	"hcbot/internal/storage"
)

// Имя документа с расписаниями в хранилище (data/schedules.json).
const DocumentName = "schedules"

// Repository загружает и сохраняет документ расписаний целиком.
type Repository struct {
	backend storage.Backend
	log     *zap.Logger
}

func NewRepository(backend storage.Backend, log *zap.Logger) *Repository {
	return &Repository{backend: backend, log: log.Named("schedules")}
}

// Load никогда не возвращает nil-документ. Отсутствующий или битый документ считается пустым,
// ошибки нет. Ошибка возвращается только когда хранилище недоступно: тогда
// сохранять поверх нельзя.
func (r *Repository) Load(ctx context.Context) (*domain.Document, error) {
	data, err := r.backend.Read(ctx, DocumentName)
	if errors.Is(err, storage.ErrDocumentNotFound) {
		return domain.NewDocument(), nil
	}
	if err != nil {
		return domain.NewDocument(), fmt.Errorf("ошибка чтения расписаний: %w", err)
	}

	doc := domain.NewDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		r.log.Warn("документ расписаний повреждён, считаем его пустым", zap.Error(err))
		return domain.NewDocument(), nil
	}
	return doc, nil
}

func (r *Repository) Save(ctx context.Context, doc *domain.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("ошибка сериализации расписаний: %w", err)
	}
	if err := r.backend.Write(ctx, DocumentName, data); err != nil {
		return fmt.Errorf("ошибка сохранения расписаний: %w", err)
	}
	return nil
}
