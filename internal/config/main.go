package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"hcbot/internal/content"
	"hcbot/internal/domain"
	"hcbot/internal/storage"
)

// Префикс переменных окружения: HCBOT_TELEGRAM_TOKEN и т.п.
const EnvPrefix = "HCBOT"

const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
)

type TelegramConfig struct {
	Token              string `yaml:"token" envconfig:"TOKEN"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify" envconfig:"INSECURE_SKIP_VERIFY"` // для прокси с подменой сертификата
}

type StorageConfig struct {
	Driver   string                 `yaml:"driver" envconfig:"DRIVER"` // file | postgres
	Dir      string                 `yaml:"dir" envconfig:"DIR"`       // каталог документов для file
	Postgres storage.PostgresConfig `yaml:"postgres" envconfig:"POSTGRES"`
}

type ScriptsConfig struct {
	Dir     string            `yaml:"dir" envconfig:"DIR"`         // корень проекта со скриптами
	Timeout time.Duration     `yaml:"timeout" envconfig:"TIMEOUT"` // предел одного запуска
	Paths   map[string]string `yaml:"paths" envconfig:"PATHS"`     // тип -> путь, переопределяет раскладку
}

type Config struct {
	Telegram TelegramConfig `yaml:"telegram" envconfig:"TELEGRAM"`

	Timezone string `yaml:"timezone" envconfig:"TIMEZONE"`   // зона, в которой пользователи задают время
	LogLevel string `yaml:"log_level" envconfig:"LOG_LEVEL"` // debug | info | warn | error
	DataDir  string `yaml:"data_dir" envconfig:"DATA_DIR"`   // кэш скриптов
	HTTPAddr string `yaml:"http_addr" envconfig:"HTTP_ADDR"` // /healthz, пустой адрес выключает

	Storage StorageConfig `yaml:"storage" envconfig:"STORAGE"`
	Scripts ScriptsConfig `yaml:"scripts" envconfig:"SCRIPTS"`

	Dispatch struct {
		Timeout time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
	} `yaml:"dispatch" envconfig:"DISPATCH"`

	Weather struct {
		DefaultCity string `yaml:"default_city" envconfig:"DEFAULT_CITY"`
	} `yaml:"weather" envconfig:"WEATHER"`
}

// Default возвращает значения, поверх которых читаются файл и окружение.
func Default() *Config {
	cfg := &Config{
		Timezone: "America/Sao_Paulo",
		LogLevel: "info",
		DataDir:  "data",
		Storage:  StorageConfig{Driver: DriverFile},
		Scripts:  ScriptsConfig{Dir: ".", Timeout: 2 * time.Minute},
	}
	cfg.Dispatch.Timeout = 5 * time.Minute
	cfg.Weather.DefaultCity = "Curitiba"
	return cfg
}

// Load собирает конфигурацию: .env, затем YAML-файл (может отсутствовать),
// затем переменные окружения HCBOT_*.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("ошибка чтения .env: %w", err)
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("ошибка чтения файла: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("ошибка парсинга YAML: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("ошибка чтения окружения: %w", err)
	}

	if cfg.Storage.Dir == "" {
		cfg.Storage.Dir = cfg.DataDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return errors.New("не задан telegram.token")
	}
	switch c.Storage.Driver {
	case DriverFile:
	case DriverPostgres:
		if c.Storage.Postgres.Host == "" || c.Storage.Postgres.DBName == "" {
			return errors.New("для storage.driver=postgres нужны storage.postgres.host и storage.postgres.name")
		}
	default:
		return fmt.Errorf("неизвестный storage.driver %q", c.Storage.Driver)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Scripts.Timeout <= 0 || c.Dispatch.Timeout <= 0 {
		return errors.New("таймауты должны быть положительными")
	}
	if _, err := c.ScriptPaths(); err != nil {
		return err
	}
	return nil
}

func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("неизвестная временная зона %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ScriptPaths собирает раскладку скриптов с учётом scripts.paths. Относительные пути
// считаются от scripts.dir.
func (c *Config) ScriptPaths() (content.Paths, error) {
	paths := content.DefaultPaths(c.Scripts.Dir)
	for k, p := range c.Scripts.Paths {
		kind, err := domain.ParseKind(k)
		if err != nil {
			return nil, fmt.Errorf("scripts.paths: %w", err)
		}
		if !filepath.IsAbs(p) {
			p = filepath.Join(c.Scripts.Dir, p)
		}
		paths[kind] = p
	}
	return paths, nil
}

// Print пишет действующую конфигурацию в лог. Токен и пароль не выводятся.
func (c *Config) Print(log *zap.Logger) {
	fields := []zap.Field{
		zap.String("timezone", c.Timezone),
		zap.String("log_level", c.LogLevel),
		zap.String("data_dir", c.DataDir),
		zap.String("http_addr", c.HTTPAddr),
		zap.Bool("insecure_skip_verify", c.Telegram.InsecureSkipVerify),
		zap.String("storage", c.Storage.Driver),
		zap.String("scripts_dir", c.Scripts.Dir),
		zap.Duration("scripts_timeout", c.Scripts.Timeout),
		zap.Duration("dispatch_timeout", c.Dispatch.Timeout),
		zap.String("default_city", c.Weather.DefaultCity),
	}
	switch c.Storage.Driver {
	case DriverFile:
		fields = append(fields, zap.String("storage_dir", c.Storage.Dir))
	case DriverPostgres:
		fields = append(fields,
			zap.String("pg_host", c.Storage.Postgres.Host),
			zap.String("pg_name", c.Storage.Postgres.DBName))
	}
	if len(c.Scripts.Paths) > 0 {
		kinds := make([]string, 0, len(c.Scripts.Paths))
		for k := range c.Scripts.Paths {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		fields = append(fields, zap.Strings("script_overrides", kinds))
	}
	log.Info("конфигурация", fields...)
}
