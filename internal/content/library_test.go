package content

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"hcbot/internal/dispatch"
	"hcbot/internal/domain"
)

type fakeExec struct {
	mu    sync.Mutex
	calls [][]string
	run   func(name string, args []string) (string, error)
}

func (f *fakeExec) Run(_ context.Context, name string, args ...string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string{name}, args...))
	f.mu.Unlock()
	if f.run == nil {
		return "", nil
	}
	return f.run(name, args)
}

type fakeFeeds map[string]string

func (f fakeFeeds) Get(_ context.Context, _ int64, name string) (string, error) {
	u, ok := f[name]
	if !ok {
		return "", errors.New("feed not found")
	}
	return u, nil
}

var testDay = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

func newLibrary(t *testing.T, exec *fakeExec, feeds FeedSource) (*Library, *Cache) {
	t.Helper()
	cache := NewCache(t.TempDir(), func() time.Time { return testDay })
	return NewLibrary(exec, DefaultPaths("/opt/hcnews"), cache, feeds, "Curitiba", zap.NewNop()), cache
}

func TestNewsUsesDailyCache(t *testing.T) {
	exec := &fakeExec{}
	lib, cache := newLibrary(t, exec, nil)
	exec.run = func(string, []string) (string, error) {
		return "", cache.Write(".news", []byte("manchete"))
	}

	text, err := lib.News(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, "manchete", text)
	assert.Equal(t, [][]string{{"/opt/hcnews/hcnews.sh", "-f", "-sa", "-s"}}, exec.calls)
	assert.Equal(t, filepath.Join(cache.dir, "20261015.news"), cache.Path(".news"))

	_, err = lib.News(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, exec.calls, 1, "second call is served from cache")

	_, err = lib.News(context.Background(), true)
	require.NoError(t, err)
	assert.Len(t, exec.calls, 2, "force regenerates")
}

func TestNewsScriptWithoutOutput(t *testing.T) {
	lib, _ := newLibrary(t, &fakeExec{}, nil)
	_, err := lib.News(context.Background(), false)
	assert.ErrorIs(t, err, ErrNoOutput)
}

func TestNewsFile(t *testing.T) {
	lib, cache := newLibrary(t, &fakeExec{}, nil)
	require.NoError(t, cache.Write(".news", []byte("manchete")))

	f, err := lib.NewsFile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "HCNEWS20261015.txt", f.Name)
	assert.Equal(t, []byte("manchete"), f.Data)
}

const horoscopeText = "♈ Áries\n📌 Aries: dia de sorte\n♉ Touro\n📌 Touro: cuidado com gastos\n"

func TestHoroscope(t *testing.T) {
	exec := &fakeExec{}
	lib, cache := newLibrary(t, exec, nil)
	exec.run = func(string, []string) (string, error) {
		return "", cache.Write(".hrcp", []byte(horoscopeText))
	}
	ctx := context.Background()

	full, err := lib.Horoscope(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, horoscopeText, full)

	sign, err := lib.Horoscope(ctx, "touro")
	require.NoError(t, err)
	assert.Equal(t, "♉ Touro\n📌 Touro: cuidado com gastos", sign)

	_, err = lib.Horoscope(ctx, "peixes")
	assert.ErrorIs(t, err, ErrSignNotFound)
	assert.Len(t, exec.calls, 1)
}

func TestWeatherDefaultCity(t *testing.T) {
	exec := &fakeExec{run: func(_ string, args []string) (string, error) { return "☀️ " + args[0], nil }}
	lib, _ := newLibrary(t, exec, nil)

	text, err := lib.Weather(context.Background(), "  ")
	require.NoError(t, err)
	assert.Equal(t, "☀️ Curitiba", text)

	_, err = lib.Weather(context.Background(), "Londrina")
	require.NoError(t, err)
	assert.Equal(t, []string{"/opt/hcnews/scripts/weather.sh", "Londrina", "--telegram"}, exec.calls[1])
}

func TestRURequiresSite(t *testing.T) {
	exec := &fakeExec{}
	lib, _ := newLibrary(t, exec, nil)

	_, err := lib.RU(context.Background(), "")
	assert.ErrorIs(t, err, ErrLocationRequired)
	assert.Empty(t, exec.calls)

	_, err = lib.RU(context.Background(), "central")
	require.NoError(t, err)
	assert.Equal(t, []string{"/opt/hcnews/scripts/UFPR/ru.sh", "-r", "central"}, exec.calls[0])
}

func TestRSSCachesByURL(t *testing.T) {
	exec := &fakeExec{run: func(_ string, args []string) (string, error) { return "itens de " + args[len(args)-1], nil }}
	lib, cache := newLibrary(t, exec, nil)
	ctx := context.Background()

	text, err := lib.RSS(ctx, "https://g1.globo.com/rss", false)
	require.NoError(t, err)
	assert.Equal(t, "itens de https://g1.globo.com/rss", text)
	assert.Equal(t, []string{"bash", "/opt/hcnews/scripts/rss.sh", "-l", "-f", "https://g1.globo.com/rss"}, exec.calls[0])

	_, err = os.Stat(cache.Path("_rss_" + URLHash("https://g1.globo.com/rss") + ".txt"))
	require.NoError(t, err)

	_, err = lib.RSS(ctx, "https://g1.globo.com/rss", false)
	require.NoError(t, err)
	assert.Len(t, exec.calls, 1)

	_, err = lib.RSS(ctx, "https://outro.com/feed", false)
	require.NoError(t, err)
	assert.Len(t, exec.calls, 2)
}

func TestRSSEmptyOutput(t *testing.T) {
	exec := &fakeExec{run: func(string, []string) (string, error) { return "  \n", nil }}
	lib, _ := newLibrary(t, exec, nil)

	_, err := lib.RSS(context.Background(), "https://vazio.com/feed", false)
	assert.ErrorIs(t, err, ErrNoOutput)
}

func TestRSSFileName(t *testing.T) {
	exec := &fakeExec{run: func(string, []string) (string, error) { return "itens", nil }}
	lib, _ := newLibrary(t, exec, nil)

	f, err := lib.RSSFile(context.Background(), "https://g1.globo.com/rss")
	require.NoError(t, err)
	assert.Equal(t, "g1.globo.com_20261015_"+URLHash("https://g1.globo.com/rss")+".txt", f.Name)
	assert.Len(t, URLHash("x"), 8)
}

type sent struct {
	text   string
	format dispatch.Format
}

type recordTarget struct {
	id    int64
	texts []sent
	files []dispatch.File
}

func (r *recordTarget) ChatID() int64 { return r.id }

func (r *recordTarget) SendText(_ context.Context, text string, f dispatch.Format) error {
	r.texts = append(r.texts, sent{text, f})
	return nil
}

func (r *recordTarget) SendFile(_ context.Context, f dispatch.File) error {
	r.files = append(r.files, f)
	return nil
}

func TestTableCoversEveryKind(t *testing.T) {
	lib, _ := newLibrary(t, &fakeExec{}, nil)
	assert.NoError(t, lib.Table().Check())
}

func TestDeliverNewsSplitsLongText(t *testing.T) {
	lib, cache := newLibrary(t, &fakeExec{}, nil)
	line := strings.Repeat("n", 100)
	require.NoError(t, cache.Write(".news", []byte(strings.Repeat(line+"\n", 60))))

	to := &recordTarget{id: 1}
	require.NoError(t, lib.Table()[domain.KindNews].Deliver(context.Background(), to, ""))
	require.Len(t, to.texts, 2)
	assert.True(t, strings.HasPrefix(to.texts[0].text, "📰 Notícias do dia\n\n"))
	assert.Equal(t, dispatch.Plain, to.texts[0].format)
}

func TestDeliverRSSResolvesFeedByChat(t *testing.T) {
	exec := &fakeExec{run: func(string, []string) (string, error) { return "Título. Link!", nil }}
	lib, _ := newLibrary(t, exec, fakeFeeds{"g1": "https://g1.globo.com/rss"})

	to := &recordTarget{id: 7}
	require.NoError(t, lib.Table()[domain.KindRSS].Deliver(context.Background(), to, "g1"))
	require.Len(t, to.texts, 1)
	assert.Equal(t, sent{`📰 Feed: g1` + "\n\n" + `Título\. Link\!`, dispatch.MarkdownV2}, to.texts[0])

	err := lib.Table()[domain.KindRSS].Deliver(context.Background(), to, "sumiu")
	assert.Error(t, err)
}

func TestDeliverScriptFailurePropagates(t *testing.T) {
	exec := &fakeExec{run: func(string, []string) (string, error) { return "", ErrScriptFailed }}
	lib, _ := newLibrary(t, exec, nil)

	to := &recordTarget{id: 1}
	err := lib.Table()[domain.KindExchange].Deliver(context.Background(), to, "")
	assert.ErrorIs(t, err, ErrScriptFailed)
	assert.Empty(t, to.texts)
}
