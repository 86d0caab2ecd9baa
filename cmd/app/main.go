package main

import (
	"context"
	"log"

	"kindlebot/internal/config"
	"kindlebot/internal/db"
	"kindlebot/internal/kindle"
	"kindlebot/internal/sendlock"
	"kindlebot/internal/service"
	"kindlebot/internal/telegram"
)

func main() {
	// 1. Конфигурация
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Ошибка конфигурации: %v", err)
	}

	log.Println("=== KINDLE BOOK BOT STARTING ===")

	// 2. БД (пользователи, история, админы)
	store, err := db.Open(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("Ошибка БД: %v", err)
	}
	defer store.Close()
	log.Printf("SQLite: %s", cfg.SQLitePath)

	// 3. Отправка на Kindle (опциональна: без SMTP бот просто шлет файлы в чат)
	var sender *kindle.Sender
	if cfg.SMTPLogin != "" && cfg.SMTPPassword != "" {
		sender, err = kindle.NewSender(kindle.Config{
			Server:           cfg.SMTPServer,
			Port:             cfg.SMTPPort,
			Login:            cfg.SMTPLogin,
			Password:         cfg.SMTPPassword,
			DefaultRecipient: cfg.KindleEmail,
		})
		if err != nil {
			log.Fatalf("Ошибка SMTP: %v", err)
		}
	} else {
		log.Println("SMTP не настроен, отправка на Kindle отключена")
	}

	// 4. Блокировки от двойной отправки + периодическая чистка зависших
	guard := sendlock.New(sendlock.DefaultTTL)
	guard.StartSweeper(context.Background(), sendlock.DefaultTTL)

	// 5. Настройки сессий каталога. Каждый сценарий (поиск, карточка,
	// скачивание) открывает свою сессию и закрывает её по завершении.
	svcOpts := service.Options{
		BaseURL:   cfg.FlibustaURL,
		ProxyAddr: cfg.TorProxyAddr,
	}
	creds := telegram.Credentials{
		Username: cfg.FlibustaUsername,
		Password: cfg.FlibustaPassword,
	}

	// 6. Бот
	bot, err := telegram.NewBot(cfg.TelegramToken, svcOpts, creds, store, sender, guard)
	if err != nil {
		log.Fatalf("Ошибка при создании бота: %v", err)
	}

	log.Println("Бот запущен! Открой Telegram и напиши /start или название книги.")
	bot.Start()
}
