package content

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Cache хранит дневной контент в <dir>/news/YYYYMMDD<suffix>.
// Часть файлов пишут сами скрипты, часть пишет бот.
type Cache struct {
	dir string
	now func() time.Time
}

func NewCache(dir string, now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{dir: filepath.Join(dir, "news"), now: now}
}

// Today возвращает текущую дату в формате YYYYMMDD.
func (c *Cache) Today() string {
	return c.now().Format("20060102")
}

func (c *Cache) Path(suffix string) string {
	return filepath.Join(c.dir, c.Today()+suffix)
}

// Read возвращает содержимое файла; ok=false, если файла ещё нет.
func (c *Cache) Read(suffix string) (data []byte, ok bool, err error) {
	f, err := os.Open(c.Path(suffix))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer f.Close()

	data, err = io.ReadAll(f)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (c *Cache) Write(suffix string, data []byte) error {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(c.Path(suffix), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// URLHash даёт короткий хеш адреса ленты для имён файлов.
func URLHash(url string) string {
	sum := md5.Sum([]byte(url))
	return hex.EncodeToString(sum[:])[:8]
}
