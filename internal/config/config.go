package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config — структура, хранящая все настройки приложения.
// Используем её, чтобы передавать параметры одной "пачкой".
type Config struct {
	FlibustaURL      string
	FlibustaUsername string
	FlibustaPassword string
	TorProxyAddr     string

	TelegramToken string
	SQLitePath    string

	SMTPServer   string
	SMTPPort     int
	SMTPLogin    string
	SMTPPassword string
	KindleEmail  string // адрес получателя по умолчанию
}

// Load считывает .env файл и заполняет структуру Config.
func Load() (*Config, error) {
	// Если файла нет — не страшно (в Docker переменные передают напрямую).
	if err := godotenv.Load(); err != nil {
		fmt.Println("Инфо: файл .env не найден, ищем переменные в окружении OS")
	}

	cfg := &Config{
		FlibustaURL:      withDefault(os.Getenv("FLIBUSTA_URL"), "https://flibusta.is"),
		FlibustaUsername: os.Getenv("FLIBUSTA_USERNAME"),
		FlibustaPassword: os.Getenv("FLIBUSTA_PASSWORD"),
		TorProxyAddr:     os.Getenv("TOR_PROXY"),
		TelegramToken:    os.Getenv("TELEGRAM_TOKEN"),
		SQLitePath:       resolvePath(withDefault(os.Getenv("SQLITE_PATH"), "data/app.db")),
		SMTPServer:       withDefault(os.Getenv("SMTP_SERVER"), "smtp.gmail.com"),
		SMTPLogin:        os.Getenv("SMTP_LOGIN"),
		SMTPPassword:     os.Getenv("SMTP_PASSWORD"),
		KindleEmail:      os.Getenv("KINDLE_EMAIL"),
	}

	port := withDefault(os.Getenv("SMTP_PORT"), "465")
	p, err := strconv.Atoi(port)
	if err != nil {
		return nil, fmt.Errorf("некорректный SMTP_PORT: %q", port)
	}
	cfg.SMTPPort = p

	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("переменная TELEGRAM_TOKEN не задана")
	}
	if cfg.FlibustaUsername == "" || cfg.FlibustaPassword == "" {
		return nil, fmt.Errorf("переменные FLIBUSTA_USERNAME/FLIBUSTA_PASSWORD не заданы")
	}

	return cfg, nil
}

func withDefault(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func resolvePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return p
	}
	if filepath.IsAbs(p) {
		return p
	}

	if exe, err := os.Executable(); err == nil {
		base := filepath.Dir(exe)
		return filepath.Clean(filepath.Join(base, p))
	}

	if cwd, err := os.Getwd(); err == nil {
		return filepath.Clean(filepath.Join(cwd, p))
	}

	return p
}
