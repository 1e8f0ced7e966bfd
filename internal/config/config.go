package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	LinksAPI  LinksAPIConfig
	QR        QRConfig
	Pipeline  PipelineConfig
	DB        DBConfig
	Redis     RedisConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Port         string
	WorkbookPath string
	WriteTimeout time.Duration
	LogLevel     string
}

type LinksAPIConfig struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64 // 0 - без ограничения
	BurstSize         int
}

type QRConfig struct {
	APIURL      string
	Storage     string // local | s3
	LocalDir    string
	S3Bucket    string
	S3Prefix    string
	S3Endpoint  string
	S3PathStyle bool
}

type PipelineConfig struct {
	BatchDelay       time.Duration
	DefaultBatchSize int
}

// DBConfig журнал истории в Postgres включается, если задан Host
type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

func (c DBConfig) Enabled() bool {
	return c.Host != ""
}

// RedisConfig кэш каталога аккаунта включается, если задан Host
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

type AuthConfig struct {
	APIKeys map[string]string // API key -> name/description
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

// Load читает .env из рабочей директории и переменные окружения
func Load() (*Config, error) {
	return LoadFrom(".env")
}

// LoadFrom читает конфиг из указанного файла; отсутствие файла не ошибка
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	var cfg Config
	cfg.App.Port = v.GetString("APP_PORT")
	cfg.App.WorkbookPath = v.GetString("WORKBOOK_PATH")
	cfg.App.WriteTimeout = v.GetDuration("APP_WRITE_TIMEOUT")
	cfg.App.LogLevel = v.GetString("LOG_LEVEL")

	cfg.LinksAPI.BaseURL = strings.TrimRight(v.GetString("LINKS_API_URL"), "/")
	cfg.LinksAPI.Timeout = v.GetDuration("LINKS_API_TIMEOUT")
	cfg.LinksAPI.RequestsPerSecond = v.GetFloat64("LINKS_API_RPS")
	cfg.LinksAPI.BurstSize = v.GetInt("LINKS_API_BURST")

	cfg.QR.APIURL = v.GetString("QR_API_URL")
	cfg.QR.Storage = strings.ToLower(v.GetString("QR_STORAGE"))
	cfg.QR.LocalDir = v.GetString("QR_DIR")
	cfg.QR.S3Bucket = v.GetString("QR_S3_BUCKET")
	cfg.QR.S3Prefix = v.GetString("QR_S3_PREFIX")
	cfg.QR.S3Endpoint = v.GetString("QR_S3_ENDPOINT")
	cfg.QR.S3PathStyle = v.GetBool("QR_S3_PATH_STYLE")

	cfg.Pipeline.BatchDelay = v.GetDuration("BATCH_DELAY")
	cfg.Pipeline.DefaultBatchSize = v.GetInt("DEFAULT_BATCH_SIZE")
	if cfg.Pipeline.DefaultBatchSize < 1 {
		cfg.Pipeline.DefaultBatchSize = 10
	}

	cfg.DB.Host = v.GetString("DB_HOST")
	cfg.DB.Port = v.GetString("DB_PORT")
	cfg.DB.User = v.GetString("DB_USER")
	cfg.DB.Password = v.GetString("DB_PASSWORD")
	cfg.DB.Name = v.GetString("DB_NAME")

	cfg.Redis.Host = v.GetString("REDIS_HOST")
	cfg.Redis.Port = v.GetString("REDIS_PORT")
	cfg.Redis.Password = v.GetString("REDIS_PASSWORD")
	cfg.Redis.DB = v.GetInt("REDIS_DB")
	cfg.Redis.TTL = v.GetDuration("CATALOG_CACHE_TTL")

	// Format: key1:name1,key2:name2
	cfg.Auth.APIKeys = parseAPIKeys(v.GetString("API_KEYS"))

	cfg.RateLimit.RequestsPerSecond = v.GetFloat64("RATE_LIMIT_RPS")
	if cfg.RateLimit.RequestsPerSecond == 0 {
		cfg.RateLimit.RequestsPerSecond = 10
	}
	cfg.RateLimit.BurstSize = v.GetInt("RATE_LIMIT_BURST")
	if cfg.RateLimit.BurstSize == 0 {
		cfg.RateLimit.BurstSize = 20
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("WORKBOOK_PATH", "tracking_links.xlsx")
	// запуск с паузами между батчами идёт синхронно в рамках запроса
	v.SetDefault("APP_WRITE_TIMEOUT", "2h")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LINKS_API_URL", "https://api.singular.net/api/v1/singular_links")
	v.SetDefault("LINKS_API_TIMEOUT", "30s")
	v.SetDefault("LINKS_API_BURST", 1)
	v.SetDefault("QR_API_URL", "https://api.qrserver.com/v1/create-qr-code/")
	v.SetDefault("QR_STORAGE", "local")
	v.SetDefault("QR_DIR", "Tracking Links QR Images")
	v.SetDefault("BATCH_DELAY", "60s")
	v.SetDefault("DEFAULT_BATCH_SIZE", 10)
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("CATALOG_CACHE_TTL", "1h")
}

// parseAPIKeys parses comma-separated API keys in format "key1:name1,key2:name2"
func parseAPIKeys(raw string) map[string]string {
	keys := make(map[string]string)
	if raw == "" {
		return keys
	}

	pairs := strings.Split(raw, ",")
	for _, pair := range pairs {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) == 2 {
			keys[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}

	return keys
}
