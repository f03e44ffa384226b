package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"debtbook/utils"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Config представляет конфигурацию приложения
type Config struct {
	Server struct {
		Port int
	}
	DB struct {
		Host     string
		Port     int
		User     string
		Password string
		DBName   string
	}
	JWT struct {
		SecretKey string
		ExpiresIn int // в часах
	}
	Auth struct {
		Password     string // пароль владельца в открытом виде, хешируется при старте
		PasswordHash string // bcrypt-хеш пароля владельца
		SignInLimit  int    // попыток входа в минуту с одного IP
	}
	SMTP struct {
		Host       string
		Port       int
		Username   string
		Password   string
		From       string
		OwnerEmail string // адрес владельца для квитанций и сводок
	}
	Gold struct {
		FeedURL   string
		PricePath string // путь к элементу с ценой в XML
		SourceURL string
		CacheTTL  time.Duration
		Attempts  int
		Timeout   time.Duration
	}
	Redis struct {
		Addr     string
		Password string
		DB       int
	}
	Storage struct {
		BlobDir          string
		HMACKey          string
		MaxImageEdge     int
		MaxImagesPerDebt int
	}
	Reminders struct {
		Cron string
	}
}

var defaults = map[string]interface{}{
	"SERVER_PORT":         8080,
	"DB_HOST":             "localhost",
	"DB_PORT":             5432,
	"DB_USER":             "postgres",
	"DB_PASSWORD":         "postgres",
	"DB_NAME":             "debtbook",
	"JWT_SECRET_KEY":      "",
	"JWT_EXPIRES_IN":      24,
	"ADMIN_PASSWORD":      "",
	"ADMIN_PASSWORD_HASH": "",
	"SIGNIN_RATE_LIMIT":   5,
	"SMTP_HOST":           "smtp.gmail.com",
	"SMTP_PORT":           587,
	"SMTP_USERNAME":       "",
	"SMTP_PASSWORD":       "",
	"SMTP_FROM":           "",
	"OWNER_EMAIL":         "",
	"GOLD_FEED_URL":       "",
	"GOLD_PRICE_PATH":     "//price[@karat='24']",
	"GOLD_SOURCE_URL":     "",
	"GOLD_CACHE_TTL":      "15m",
	"GOLD_FETCH_ATTEMPTS": 3,
	"GOLD_FETCH_TIMEOUT":  "10s",
	"REDIS_ADDR":          "",
	"REDIS_PASSWORD":      "",
	"REDIS_DB":            0,
	"BLOB_DIR":            "data/images",
	"STORAGE_HMAC_KEY":    "",
	"MAX_IMAGE_EDGE":      1600,
	"MAX_IMAGES_PER_DEBT": 20,
	"REMINDERS_CRON":      "@every 8h",
}

// NewConfig создает новый экземпляр конфигурации.
// Значения читаются из окружения, файл .env подгружается, если он есть.
func NewConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("ошибка чтения файла .env: %v", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	cfg := &Config{}
	var err error

	// Настройки сервера
	if cfg.Server.Port, err = intValue(v, "SERVER_PORT", "порта сервера"); err != nil {
		return nil, err
	}

	// Настройки базы данных
	cfg.DB.Host = v.GetString("DB_HOST")
	if cfg.DB.Port, err = intValue(v, "DB_PORT", "порта базы данных"); err != nil {
		return nil, err
	}
	cfg.DB.User = v.GetString("DB_USER")
	cfg.DB.Password = v.GetString("DB_PASSWORD")
	cfg.DB.DBName = v.GetString("DB_NAME")

	// Настройки JWT
	cfg.JWT.SecretKey = v.GetString("JWT_SECRET_KEY")
	if cfg.JWT.SecretKey == "" {
		key, err := utils.GenerateRandomKey(32)
		if err != nil {
			return nil, err
		}
		cfg.JWT.SecretKey = hex.EncodeToString(key)
		utils.LogInfo("JWT_SECRET_KEY не задан, сгенерирован временный ключ")
	}
	if cfg.JWT.ExpiresIn, err = intValue(v, "JWT_EXPIRES_IN", "времени жизни JWT"); err != nil {
		return nil, err
	}

	// Доступ владельца
	cfg.Auth.Password = v.GetString("ADMIN_PASSWORD")
	cfg.Auth.PasswordHash = v.GetString("ADMIN_PASSWORD_HASH")
	if cfg.Auth.SignInLimit, err = intValue(v, "SIGNIN_RATE_LIMIT", "лимита попыток входа"); err != nil {
		return nil, err
	}

	// Настройки SMTP
	cfg.SMTP.Host = v.GetString("SMTP_HOST")
	if cfg.SMTP.Port, err = intValue(v, "SMTP_PORT", "порта SMTP"); err != nil {
		return nil, err
	}
	cfg.SMTP.Username = v.GetString("SMTP_USERNAME")
	cfg.SMTP.Password = v.GetString("SMTP_PASSWORD")
	cfg.SMTP.From = v.GetString("SMTP_FROM")
	cfg.SMTP.OwnerEmail = v.GetString("OWNER_EMAIL")

	// Источник цены золота
	cfg.Gold.FeedURL = v.GetString("GOLD_FEED_URL")
	cfg.Gold.PricePath = v.GetString("GOLD_PRICE_PATH")
	cfg.Gold.SourceURL = v.GetString("GOLD_SOURCE_URL")
	if cfg.Gold.SourceURL == "" {
		cfg.Gold.SourceURL = cfg.Gold.FeedURL
	}
	if cfg.Gold.CacheTTL, err = durationValue(v, "GOLD_CACHE_TTL", "времени кеширования цены золота"); err != nil {
		return nil, err
	}
	if cfg.Gold.Attempts, err = intValue(v, "GOLD_FETCH_ATTEMPTS", "числа попыток получения цены"); err != nil {
		return nil, err
	}
	if cfg.Gold.Timeout, err = durationValue(v, "GOLD_FETCH_TIMEOUT", "таймаута получения цены"); err != nil {
		return nil, err
	}

	// Redis необязателен
	cfg.Redis.Addr = v.GetString("REDIS_ADDR")
	cfg.Redis.Password = v.GetString("REDIS_PASSWORD")
	if cfg.Redis.DB, err = intValue(v, "REDIS_DB", "номера базы Redis"); err != nil {
		return nil, err
	}

	// Хранилище вложений
	cfg.Storage.BlobDir = v.GetString("BLOB_DIR")
	cfg.Storage.HMACKey = v.GetString("STORAGE_HMAC_KEY")
	if cfg.Storage.HMACKey == "" {
		cfg.Storage.HMACKey = cfg.JWT.SecretKey
	}
	if cfg.Storage.MaxImageEdge, err = intValue(v, "MAX_IMAGE_EDGE", "максимального размера изображения"); err != nil {
		return nil, err
	}
	if cfg.Storage.MaxImagesPerDebt, err = intValue(v, "MAX_IMAGES_PER_DEBT", "лимита изображений"); err != nil {
		return nil, err
	}

	cfg.Reminders.Cron = v.GetString("REMINDERS_CRON")

	return cfg, nil
}

// intValue читает целое значение и сообщает о неверном формате
func intValue(v *viper.Viper, key, what string) (int, error) {
	n, err := cast.ToIntE(v.Get(key))
	if err != nil {
		return 0, fmt.Errorf("неверный формат %s: %v", what, err)
	}
	return n, nil
}

// durationValue читает длительность вида "15m"
func durationValue(v *viper.Viper, key, what string) (time.Duration, error) {
	d, err := cast.ToDurationE(v.Get(key))
	if err != nil {
		return 0, fmt.Errorf("неверный формат %s: %v", what, err)
	}
	return d, nil
}
