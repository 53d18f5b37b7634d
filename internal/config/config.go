// config предоставляет структуру конфигурации сервиса и функции
// загрузки из файла/переменных окружения с предсказуемым приоритетом.
package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config — корневая конфигурация admin-api.
// Источники значений (по убыванию приоритета):
//  1. явный путь через флаг --config;
//  2. путь в переменной окружения CONFIG_PATH;
//  3. файл local.yaml из рабочей директории;
//  4. переменные окружения (cleanenv).
type Config struct {
	Env           string             `yaml:"env" env:"ENV" env-default:"local"`
	HTTP          HTTPConfig         `yaml:"http"`
	Auth          AuthConfig         `yaml:"auth"`
	DB            DBConfig           `yaml:"db"`
	Mongo         MongoConfig        `yaml:"mongo"`
	Redis         RedisConfig        `yaml:"redis"`
	Chat          ChatConfig         `yaml:"chat"`
	Notifications NotificationConfig `yaml:"notifications"`
	Timeouts      TimeoutConfig      `yaml:"timeouts"`
}

// TimeoutConfig — таймауты сервиса.
type TimeoutConfig struct {
	Service time.Duration `yaml:"service" env:"SERVICE_TIMEOUT" env-default:"15s"`
}

// HTTPConfig — сетевые настройки HTTP-сервера.
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"50070"`
}

// Addr возвращает адрес в формате host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

// AuthConfig содержит параметры выпуска и валидации токенов.
type AuthConfig struct {
	JWTSecret       string        `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl" env:"ACCESS_TOKEN_TTL" env-default:"15m"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl" env:"REFRESH_TOKEN_TTL" env-default:"720h"`
	Issuer          string        `yaml:"issuer"   env:"ISSUER" env-default:"admin-api"`
	Audience        []string      `yaml:"audience" env:"AUDIENCE" env-default:"admin-dashboard"`
	// CookieDomain — домен для accessToken/refreshToken cookie; пустой —
	// домен запроса. Secure выставляется автоматически при env=prod.
	CookieDomain string `yaml:"cookie_domain" env:"COOKIE_DOMAIN" env-default:""`
}

// DBConfig — настройки подключения к PostgreSQL (пользователи, refresh-токены, устройства).
type DBConfig struct {
	DatabaseURL string `yaml:"db_url" env:"DATABASE_URL" env-required:"true"`
}

// MongoConfig — настройки подключения к MongoDB (чаты).
type MongoConfig struct {
	URL string `yaml:"url" env:"MONGO_URL" env-required:"true"`
}

// RedisConfig — Redis для ленты уведомлений и кэша refresh-токенов.
// Пустой URL отключает и то и другое.
type RedisConfig struct {
	RedisURL string `yaml:"redis_url" env:"REDIS_URL" env-default:""`
}

// ChatConfig — лимиты постраничной выдачи истории.
type ChatConfig struct {
	PageSizeDefault int32 `yaml:"page_size_default" env:"CHAT_PAGE_SIZE_DEFAULT" env-default:"50"`
	PageSizeMax     int32 `yaml:"page_size_max" env:"CHAT_PAGE_SIZE_MAX" env-default:"200"`
	// MaxMessageLen — максимальная длина текста сообщения в рунах.
	MaxMessageLen int `yaml:"max_message_len" env:"CHAT_MAX_MESSAGE_LEN" env-default:"4000"`
}

// NotificationConfig — ограничения ленты уведомлений.
type NotificationConfig struct {
	MaxItems int64         `yaml:"max_items" env:"NOTIFICATIONS_MAX_ITEMS" env-default:"200"`
	TTL      time.Duration `yaml:"ttl" env:"NOTIFICATIONS_TTL" env-default:"720h"`
}

// MustLoad — обёртка над Load с panic при ошибке.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

// Load выбирает источник конфигурации в порядке приоритета: явный путь,
// CONFIG_PATH, ./local.yaml, только ENV. Значения из ENV всегда
// накладываются поверх прочитанных из YAML.
func Load(path string) (*Config, error) {
	var cfg Config

	fromFile := func(p string) (*Config, error) {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return &cfg, nil
	}

	switch {
	case path != "":
		return fromFile(path)
	case os.Getenv("CONFIG_PATH") != "":
		return fromFile(os.Getenv("CONFIG_PATH"))
	}

	if _, err := os.Stat("local.yaml"); err == nil {
		return fromFile("local.yaml")
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	return &cfg, nil
}
