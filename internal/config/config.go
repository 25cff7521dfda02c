package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config представляет структуру конфигурации для приложения.
type Config struct {
	App struct {
		Port string `mapstructure:"port"`
		Env  string `mapstructure:"env"`
	} `mapstructure:"app"`
	Database struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"database"`
	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`
	Kafka struct {
		Brokers []string `mapstructure:"brokers"`
	} `mapstructure:"kafka"`
	VNPay VNPayConfig `mapstructure:"vnpay"`
}

// VNPayConfig содержит параметры платежного шлюза VNPay.
// Передается явно в билдер запросов и верификатор коллбэков,
// глобального состояния нет.
type VNPayConfig struct {
	TmnCode    string `mapstructure:"tmnCode"`    // код мерчанта (vnp_TmnCode)
	HashSecret string `mapstructure:"hashSecret"` // секрет для HMAC-SHA512
	PayURL     string `mapstructure:"payUrl"`     // URL платежной страницы шлюза
	ReturnURL  string `mapstructure:"returnUrl"`  // URL возврата браузера
	Locale     string `mapstructure:"locale"`
	Currency   string `mapstructure:"currency"`
	OrderType  string `mapstructure:"orderType"`
}

// LoadConfig загружает конфигурацию из файла или переменных окружения.
func LoadConfig(path string) (*Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		err := godotenv.Load(path)
		if err != nil {
			return nil, err
		}
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.AutomaticEnv() // Чтение переменных окружения

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	applyDefaults(&config)

	return &config, nil
}

// applyDefaults проставляет значения по умолчанию для VNPay.
func applyDefaults(cfg *Config) {
	if cfg.VNPay.Locale == "" {
		cfg.VNPay.Locale = "vn"
	}
	if cfg.VNPay.Currency == "" {
		cfg.VNPay.Currency = "VND"
	}
	if cfg.VNPay.OrderType == "" {
		cfg.VNPay.OrderType = "other"
	}
}
