package feeds

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"hcbot/internal/storage"
)

func newStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	backend, err := storage.NewFileBackend(dir)
	require.NoError(t, err)
	s := NewStore(backend, zap.NewNop())
	s.now = func() time.Time { return time.Date(2026, 10, 15, 8, 30, 0, 0, time.UTC) }
	return s, dir
}

func TestValidateURL(t *testing.T) {
	assert.NoError(t, ValidateURL("https://g1.globo.com/rss"))
	assert.NoError(t, ValidateURL("http://example.com/feed.xml"))
	assert.ErrorIs(t, ValidateURL("ftp://example.com"), ErrInvalidURL)
	assert.ErrorIs(t, ValidateURL("g1.globo.com"), ErrInvalidURL)
}

func TestAddAutoNames(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	name, err := s.Add(ctx, 1, "https://g1.globo.com/rss/economia", "")
	require.NoError(t, err)
	assert.Equal(t, "g1.globo.com", name)

	name, err = s.Add(ctx, 1, "https://g1.globo.com/rss/esportes", "")
	require.NoError(t, err)
	assert.Equal(t, "g1.globo.com_1", name)

	name, err = s.Add(ctx, 1, "https://g1.globo.com/rss/mundo", "")
	require.NoError(t, err)
	assert.Equal(t, "g1.globo.com_2", name)

	name, err = s.Add(ctx, 1, "https://hn.com/rss", "  hacker news ")
	require.NoError(t, err)
	assert.Equal(t, "hacker news", name)

	name, err = s.Add(ctx, 1, "https:///semhost", "")
	require.NoError(t, err)
	assert.Equal(t, "feed_20261015083000", name)

	_, err = s.Add(ctx, 1, "nope", "x")
	assert.ErrorIs(t, err, ErrInvalidURL)
}

func TestListSortedByName(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	for _, n := range []string{"zeta", "alfa", "meio"} {
		_, err := s.Add(ctx, 5, "https://"+n+".com/rss", n)
		require.NoError(t, err)
	}

	list, err := s.List(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, []Feed{
		{Name: "alfa", URL: "https://alfa.com/rss"},
		{Name: "meio", URL: "https://meio.com/rss"},
		{Name: "zeta", URL: "https://zeta.com/rss"},
	}, list)

	empty, err := s.List(ctx, 6)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGet(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	_, err := s.Get(ctx, 1, "")
	assert.ErrorIs(t, err, ErrFeedNotFound)

	_, err = s.Add(ctx, 1, "https://a.com/rss", "a")
	require.NoError(t, err)
	u, err := s.Get(ctx, 1, "")
	require.NoError(t, err, "single feed is the default")
	assert.Equal(t, "https://a.com/rss", u)

	_, err = s.Add(ctx, 1, "https://b.com/rss", "b")
	require.NoError(t, err)
	_, err = s.Get(ctx, 1, "")
	assert.ErrorIs(t, err, ErrFeedNotFound, "ambiguous without a name")

	u, err = s.Get(ctx, 1, "b")
	require.NoError(t, err)
	assert.Equal(t, "https://b.com/rss", u)

	_, err = s.Get(ctx, 1, "c")
	assert.ErrorIs(t, err, ErrFeedNotFound)
}

func TestRemove(t *testing.T) {
	s, dir := newStore(t)
	ctx := context.Background()
	_, err := s.Add(ctx, 1, "https://a.com/rss", "a")
	require.NoError(t, err)
	_, err = s.Add(ctx, 2, "https://b.com/rss", "b")
	require.NoError(t, err)

	assert.ErrorIs(t, s.Remove(ctx, 1, "zzz"), ErrFeedNotFound)
	require.NoError(t, s.Remove(ctx, 1, "a"))

	data, err := os.ReadFile(filepath.Join(dir, DocumentName+".json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"2":{"b":"https://b.com/rss"}}`, string(data), "empty chat is dropped")

	require.NoError(t, s.RemoveAll(ctx, 2))
	assert.ErrorIs(t, s.RemoveAll(ctx, 2), ErrFeedNotFound)
}

func TestLegacyFormat(t *testing.T) {
	s, dir := newStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, DocumentName+".json"),
		[]byte(`{"10":"https://legado.com/rss","11":{"x":"https://x.com/rss"},"12":null}`), 0o644))
	ctx := context.Background()

	list, err := s.List(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []Feed{{Name: "Default", URL: "https://legado.com/rss"}}, list)

	// запись переводит документ в новый формат
	_, err = s.Add(ctx, 10, "https://novo.com/rss", "novo")
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(dir, DocumentName+".json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"10":{"Default":"https://legado.com/rss","novo":"https://novo.com/rss"},
		"11":{"x":"https://x.com/rss"},
		"12":null
	}`, string(data))
}

func TestMalformedDocumentIsEmpty(t *testing.T) {
	s, dir := newStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, DocumentName+".json"), []byte(`{"1":`), 0o644))

	list, err := s.List(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, list)
}
