package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type ConfigSchema struct {
	API struct {
		BaseURL        string        `yaml:"base_url"`
		Timeout        time.Duration `yaml:"timeout"`
		ChatTimeout    time.Duration `yaml:"chat_timeout"`
		ChatRatePerMin int           `yaml:"chat_rate_per_min"`
		RateLimit      float64       `yaml:"rate_limit"` // запросов в секунду, 0 - без ограничений
	} `yaml:"api"`
	Store struct {
		Backend    string `yaml:"backend"` // memory, file, redis, sqlite
		Path       string `yaml:"path"`
		Passphrase string `yaml:"passphrase"`
	} `yaml:"store"`
	Redis struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	Stub struct {
		Host      string `yaml:"host"`
		Port      int    `yaml:"port"`
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"stub"`
	Logs struct {
		Level string `yaml:"level"`
	} `yaml:"logs"`
}

var AppConfig *ConfigSchema

// Default возвращает конфигурацию со значениями по умолчанию
func Default() *ConfigSchema {
	c := &ConfigSchema{}
	c.API.BaseURL = "http://localhost:5000"
	c.API.Timeout = 0
	c.API.ChatTimeout = 30 * time.Second
	c.API.ChatRatePerMin = 20
	c.Store.Backend = "file"
	c.Store.Path = "avocare.session"
	c.Redis.Host = "localhost"
	c.Redis.Port = 6379
	c.Redis.Prefix = "avocare:"
	c.Stub.Host = "localhost"
	c.Stub.Port = 5000
	c.Stub.JWTSecret = "default-secret-key-change-this"
	c.Logs.Level = "info"
	return c
}

// LoadConfig читает YAML поверх значений по умолчанию, затем применяет переменные окружения.
// Отсутствующий файл не считается ошибкой.
func LoadConfig(filePath string) error {
	conf := Default()

	data, err := os.ReadFile(filePath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, conf); err != nil {
			return err
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return err
	}

	// .env опционален
	_ = godotenv.Load()
	applyEnv(conf)

	AppConfig = conf
	return nil
}

func applyEnv(c *ConfigSchema) {
	if v := os.Getenv("AVOCARE_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("AVOCARE_CHAT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.API.ChatTimeout = d
		}
	}
	if v := os.Getenv("AVOCARE_STORE"); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv("AVOCARE_STORE_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("AVOCARE_STORE_PASSPHRASE"); v != "" {
		c.Store.Passphrase = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Redis.Port = p
		}
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Stub.JWTSecret = v
	}
	if v := os.Getenv("AVOCARE_LOG_LEVEL"); v != "" {
		c.Logs.Level = v
	}
}
