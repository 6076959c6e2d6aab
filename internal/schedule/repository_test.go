package schedule

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"hcbot/internal/domain"
	"hcbot/internal/storage"
)

// memBackend: хранилище в памяти с управляемыми ошибками.
type memBackend struct {
	mu       sync.Mutex
	docs     map[string][]byte
	readErr  error
	writeErr error
	writes   int
}

func newMemBackend() *memBackend {
	return &memBackend{docs: make(map[string][]byte)}
}

func (b *memBackend) Read(_ context.Context, name string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.readErr != nil {
		return nil, b.readErr
	}
	data, ok := b.docs[name]
	if !ok {
		return nil, storage.ErrDocumentNotFound
	}
	return append([]byte(nil), data...), nil
}

func (b *memBackend) Write(_ context.Context, name string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.writeErr != nil {
		return b.writeErr
	}
	b.writes++
	b.docs[name] = append([]byte(nil), data...)
	return nil
}

func (b *memBackend) Close() error { return nil }

func TestRepositoryRoundTripPreservesOrder(t *testing.T) {
	backend, err := storage.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	repo := NewRepository(backend, zap.NewNop())
	ctx := context.Background()

	doc := domain.NewDocument()
	doc.Append("300", domain.Entry{Time: "18:00", Type: domain.KindRSS, Location: "g1"})
	doc.Append("-1", domain.Entry{Time: "06:00", Type: domain.KindNews})
	doc.Append("300", domain.Entry{Time: "07:00", Type: domain.KindRU, Location: "central"})
	doc.Append("12", domain.Entry{Time: "12:00", Type: domain.KindWeather})

	require.NoError(t, repo.Save(ctx, doc))
	loaded, err := repo.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, doc, loaded)
	assert.Equal(t, []string{"300", "-1", "12"}, loaded.Chats())
}

func TestRepositoryMissingDocumentIsEmpty(t *testing.T) {
	backend, err := storage.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	repo := NewRepository(backend, zap.NewNop())

	doc, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, doc.Len())
}

func TestRepositoryMalformedDocumentIsEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DocumentName+".json"), []byte(`{"1": [{"time":`), 0o644))
	backend, err := storage.NewFileBackend(dir)
	require.NoError(t, err)
	repo := NewRepository(backend, zap.NewNop())

	doc, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, doc.Len())
}

func TestRepositoryUnreadableBackendReturnsError(t *testing.T) {
	backend := newMemBackend()
	backend.readErr = errors.New("connection refused")
	repo := NewRepository(backend, zap.NewNop())

	doc, err := repo.Load(context.Background())
	require.Error(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, 0, doc.Len())
}
