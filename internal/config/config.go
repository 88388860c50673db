package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "QUASH"

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Repository  RepositoryConfig  `mapstructure:"repository"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Attachments AttachmentsConfig `mapstructure:"attachments"`
	Audit       AuditConfig       `mapstructure:"audit"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Worker      WorkerConfig      `mapstructure:"worker"`
	Categories  CategoriesConfig  `mapstructure:"categories"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CorsOrigins     []string      `mapstructure:"cors_origins"`
	RateLimit       int           `mapstructure:"rate_limit"`
}

type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	MaxConnections int32         `mapstructure:"max_connections"`
	MinConnections int32         `mapstructure:"min_connections"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	AutoMigrate    bool          `mapstructure:"auto_migrate"`
}

type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	File        string `mapstructure:"file"`
}

type RepositoryConfig struct {
	Type string `mapstructure:"type"` // "postgres" или "inmemory"
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

type AttachmentsConfig struct {
	Dir           string `mapstructure:"dir"`
	MaxUploadSize int64  `mapstructure:"max_upload_size"`
}

type AuditConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	RabbitMQURL string `mapstructure:"rabbitmq_url"`
	Queue       string `mapstructure:"queue"`
	Buffer      int    `mapstructure:"buffer"`
}

type RedisConfig struct {
	Addr string `mapstructure:"addr"`
}

type WorkerConfig struct {
	Interval  time.Duration `mapstructure:"interval"`
	BatchSize int           `mapstructure:"batch_size"`
}

type CategoriesConfig struct {
	SeedFile string `mapstructure:"seed_file"`
}

// ключи без значения по умолчанию тоже объявлены, иначе Unmarshal не видит их в окружении
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.rate_limit", 100)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.min_connections", 2)
	v.SetDefault("database.idle_timeout", 5*time.Minute)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("logging.development", false)
	v.SetDefault("logging.file", "")
	v.SetDefault("repository.type", "inmemory")
	v.SetDefault("auth.jwt_secret", "")

	v.SetDefault("attachments.dir", "attachments")
	v.SetDefault("attachments.max_upload_size", 10<<20)

	v.SetDefault("audit.enabled", false)
	v.SetDefault("audit.rabbitmq_url", "")
	v.SetDefault("audit.queue", "quash.audit")
	v.SetDefault("audit.buffer", 256)

	v.SetDefault("redis.addr", "")

	v.SetDefault("worker.interval", 5*time.Minute)
	v.SetDefault("worker.batch_size", 100)

	v.SetDefault("categories.seed_file", "")
}

// Load собирает конфигурацию: значения по умолчанию, файл, переменные окружения
// с префиксом QUASH_ и флаги командной строки (в порядке возрастания приоритета).
// Пустой path означает поиск config.yml в текущем каталоге; его отсутствие не ошибка.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("ошибка чтения конфигурации: %w", err)
		}
	}

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора конфигурации: %w", err)
	}
	return &cfg, nil
}

// flagKeys - флаги командной строки и ключи конфигурации, которые они перекрывают
var flagKeys = map[string]string{
	"port":         "server.port",
	"repository":   "repository.type",
	"database-url": "database.url",
	"log-dev":      "logging.development",
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("привязка флага %s: %w", name, err)
		}
	}
	return nil
}

// Validate проверяет то, что нужно для запуска сервера
func (c *Config) Validate() error {
	switch c.Repository.Type {
	case "inmemory":
	case "postgres":
		if c.Database.URL == "" {
			return errors.New("database.url обязателен для repository.type=postgres")
		}
	default:
		return fmt.Errorf("неизвестный repository.type: %q", c.Repository.Type)
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret не задан")
	}
	if c.Audit.Enabled && c.Audit.RabbitMQURL == "" {
		return errors.New("audit.rabbitmq_url обязателен при audit.enabled")
	}
	return nil
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}
