package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"kindlebot/internal/db"
	"kindlebot/internal/kindle"
	"kindlebot/internal/models"
	"kindlebot/internal/sendlock"
	"kindlebot/internal/service"
)

const (
	defaultPageSize = 10

	cbBookPrefix     = "book:"
	cbPagePrefix     = "page:"
	cbDownloadPrefix = "dl:"
	cbKindlePrefix   = "kindle:"

	// Сколько секунд даем одному сценарию (поиск/карточка/скачивание).
	interactionTimeout = 2 * time.Minute

	descriptionLimit = 500
)

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Credentials — учетные данные каталога, передаются в каждую сессию.
type Credentials struct {
	Username string
	Password string
}

type Bot struct {
	bot    *tgbotapi.BotAPI
	store  *db.Store
	sender *kindle.Sender // nil, если SMTP не настроен
	guard  *sendlock.Guard

	svcOpts service.Options
	creds   Credentials

	sessions   map[int64]*searchSession
	sessionsMu sync.Mutex

	// Чаты, от которых ждем email для Kindle вместо поискового запроса.
	awaitingEmail   map[int64]struct{}
	awaitingEmailMu sync.Mutex
}

type searchSession struct {
	query    string
	books    []models.BookSummary
	page     int
	pageSize int
}

func NewBot(token string, svcOpts service.Options, creds Credentials, store *db.Store, sender *kindle.Sender, guard *sendlock.Guard) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	bot.Debug = false
	log.Printf("Авторизован как %s", bot.Self.UserName)

	return &Bot{
		bot:           bot,
		store:         store,
		sender:        sender,
		guard:         guard,
		svcOpts:       svcOpts,
		creds:         creds,
		sessions:      make(map[int64]*searchSession),
		awaitingEmail: make(map[int64]struct{}),
	}, nil
}

// Start — главный цикл.
func (b *Bot) Start() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.bot.GetUpdatesChan(u)

	for update := range updates {
		if update.Message != nil {
			b.handleMessage(update.Message)
		}
		if update.CallbackQuery != nil {
			b.handleCallback(update.CallbackQuery)
		}
	}
}

// openSession открывает сессию каталога на один сценарий и пробует войти.
// Неудачный вход не фатален для поиска: каталог ищет и анонимно, а ссылки
// на скачивание просто останутся пустыми.
func (b *Bot) openSession(ctx context.Context) (*service.FlibustaClient, error) {
	client, err := service.New(b.svcOpts)
	if err != nil {
		return nil, err
	}
	if err := client.Login(ctx, b.creds.Username, b.creds.Password); err != nil {
		log.Printf("Login error: %v", err)
	}
	return client, nil
}

// closeSession завершает сценарий: выходит из аккаунта на сайте и
// освобождает соединения.
func (b *Bot) closeSession(ctx context.Context, client *service.FlibustaClient) {
	client.Logout(ctx)
	client.Close()
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		b.handleCommand(msg)
		return
	}

	if b.takeAwaitingEmail(chatID) {
		b.handleKindleEmailInput(msg)
		return
	}

	b.handleSearch(msg)
}

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start", "help":
		b.sendMessage(chatID, "Привет! Напиши название книги или автора — я найду её, "+
			"пришлю файлом или отправлю на Kindle.\n\n"+
			"/kindle — настроить email для Kindle\n"+
			"/history — история скачиваний\n"+
			"/kindlehistory — история отправок на Kindle")
	case "kindle":
		b.promptKindleEmail(chatID, msg.From.ID)
	case "history":
		b.showDownloadHistory(chatID, msg.From.ID)
	case "kindlehistory":
		b.showKindleHistory(chatID, msg.From.ID)
	case "addadmin":
		b.handleAddAdmin(msg)
	case "deladmin":
		b.handleRemoveAdmin(msg)
	case "admins":
		b.handleListAdmins(msg)
	case "stats":
		b.handleStats(msg)
	default:
		b.sendMessage(chatID, "Не знаю такую команду. Напиши название книги — я поищу.")
	}
}

// handleSearch — Обработка текста (ПОИСК).
func (b *Bot) handleSearch(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	query := strings.TrimSpace(msg.Text)
	if query == "" {
		return
	}

	b.sendMessage(chatID, "🔎 Ищу: "+query+"...")

	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()

	client, err := b.openSession(ctx)
	if err != nil {
		b.sendMessage(chatID, "❌ Ошибка поиска. Попробуйте ещё раз чуть позже.")
		log.Printf("Open session error: %v", err)
		return
	}
	defer b.closeSession(ctx, client)

	books, err := client.Search(ctx, query, 0)
	if err != nil {
		b.sendMessage(chatID, "❌ Ошибка поиска. Попробуйте ещё раз чуть позже.")
		log.Printf("Search error: %v", err)
		return
	}

	if b.store != nil {
		if err := b.store.EnsureUser(ctx, msg.From.ID, msg.From.UserName); err != nil {
			log.Printf("EnsureUser error: %v", err)
		}
		if err := b.store.SaveSearch(ctx, msg.From.ID, query, len(books)); err != nil {
			log.Printf("SaveSearch error: %v", err)
		}
	}

	if len(books) == 0 {
		b.sendMessage(chatID, "😔 Ничего не найдено.")
		return
	}

	b.storeSession(chatID, query, books)
	b.sendBooksPage(chatID, 0)
}

func (b *Bot) storeSession(chatID int64, query string, books []models.BookSummary) {
	b.sessionsMu.Lock()
	defer b.sessionsMu.Unlock()

	b.sessions[chatID] = &searchSession{
		query:    query,
		books:    books,
		page:     0,
		pageSize: defaultPageSize,
	}
}

func (b *Bot) getSession(chatID int64) (*searchSession, bool) {
	b.sessionsMu.Lock()
	defer b.sessionsMu.Unlock()

	session, ok := b.sessions[chatID]
	return session, ok
}

func (b *Bot) findBookInSession(chatID int64, bookID string) (models.BookSummary, bool) {
	session, ok := b.getSession(chatID)
	if !ok {
		return models.BookSummary{}, false
	}

	for _, book := range session.books {
		if book.ID == bookID {
			return book, true
		}
	}
	return models.BookSummary{}, false
}

func clampPage(page, totalPages int) int {
	if totalPages <= 0 {
		return 0
	}
	if page < 0 {
		return 0
	}
	if page >= totalPages {
		return totalPages - 1
	}
	return page
}

func totalPages(total, pageSize int) int {
	if total == 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

func (b *Bot) buildPage(chatID int64, page int) (string, tgbotapi.InlineKeyboardMarkup, bool) {
	session, ok := b.getSession(chatID)
	if !ok || len(session.books) == 0 {
		return "", tgbotapi.InlineKeyboardMarkup{}, false
	}

	total := len(session.books)
	pages := totalPages(total, session.pageSize)
	page = clampPage(page, pages)

	start := page * session.pageSize
	end := start + session.pageSize
	if end > total {
		end = total
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, book := range session.books[start:end] {
		text := book.Title
		if book.Author != "" {
			text = book.Title + " - " + book.Author
		}
		btn := tgbotapi.NewInlineKeyboardButtonData(text, cbBookPrefix+book.ID)
		rows = append(rows, []tgbotapi.InlineKeyboardButton{btn})
	}

	if pages > 1 {
		var navRow []tgbotapi.InlineKeyboardButton
		if page > 0 {
			navRow = append(navRow, tgbotapi.NewInlineKeyboardButtonData("⬅️", fmt.Sprintf("%s%d", cbPagePrefix, page-1)))
		}
		navRow = append(navRow, tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("• %d/%d •", page+1, pages),
			fmt.Sprintf("%s%d", cbPagePrefix, page),
		))
		if page < pages-1 {
			navRow = append(navRow, tgbotapi.NewInlineKeyboardButtonData("➡️", fmt.Sprintf("%s%d", cbPagePrefix, page+1)))
		}
		rows = append(rows, navRow)
	}

	b.sessionsMu.Lock()
	if session, ok := b.sessions[chatID]; ok {
		session.page = page
	}
	b.sessionsMu.Unlock()

	text := fmt.Sprintf("📚 По запросу «%s» найдено книг: %d\nСтраница %d/%d",
		session.query, total, page+1, pages)
	return text, tgbotapi.NewInlineKeyboardMarkup(rows...), true
}

func (b *Bot) sendBooksPage(chatID int64, page int) {
	text, markup, ok := b.buildPage(chatID, page)
	if !ok {
		b.sendMessage(chatID, "⚠️ Результаты поиска устарели. Напиши запрос ещё раз.")
		return
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	b.bot.Send(msg)
}

func (b *Bot) editBooksPage(chatID int64, messageID int, page int) {
	text, markup, ok := b.buildPage(chatID, page)
	if !ok {
		b.sendMessage(chatID, "⚠️ Результаты поиска устарели. Напиши запрос ещё раз.")
		return
	}

	editText := tgbotapi.NewEditMessageText(chatID, messageID, text)
	editText.ReplyMarkup = &markup
	if _, err := b.bot.Send(editText); err != nil {
		log.Printf("Edit message error: %v", err)
	}
}

// handleCallback — Обработка нажатий на кнопки.
func (b *Bot) handleCallback(cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		return
	}

	chatID := cb.Message.Chat.ID
	data := cb.Data

	switch {
	case strings.HasPrefix(data, cbPagePrefix):
		b.bot.Request(tgbotapi.NewCallback(cb.ID, "Листаю…"))

		page, err := strconv.Atoi(strings.TrimPrefix(data, cbPagePrefix))
		if err != nil {
			log.Printf("Invalid page callback data: %q", data)
			return
		}
		b.editBooksPage(chatID, cb.Message.MessageID, page)

	case strings.HasPrefix(data, cbBookPrefix):
		b.bot.Request(tgbotapi.NewCallback(cb.ID, "Открываю…"))
		b.sendBookDetails(chatID, strings.TrimPrefix(data, cbBookPrefix))

	case strings.HasPrefix(data, cbDownloadPrefix):
		bookID, format, ok := splitBookFormat(strings.TrimPrefix(data, cbDownloadPrefix))
		if !ok {
			log.Printf("Invalid download callback data: %q", data)
			return
		}
		b.bot.Request(tgbotapi.NewCallback(cb.ID, "Начинаю скачивание... ⏳"))
		b.downloadToChat(chatID, cb.From, bookID, format)

	case strings.HasPrefix(data, cbKindlePrefix):
		b.bot.Request(tgbotapi.NewCallback(cb.ID, "Отправляю на Kindle… 📧"))
		b.sendToKindle(chatID, cb.From, strings.TrimPrefix(data, cbKindlePrefix))
	}
}

func splitBookFormat(rest string) (string, models.Format, bool) {
	parts := strings.SplitN(rest, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", models.FormatUnknown, false
	}
	return parts[0], models.ParseFormat(parts[1]), true
}

// sendBookDetails показывает карточку книги: жанры, описание, форматы.
func (b *Bot) sendBookDetails(chatID int64, bookID string) {
	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()

	client, err := b.openSession(ctx)
	if err != nil {
		b.sendMessage(chatID, "❌ Не удалось получить информацию о книге. Попробуйте позже.")
		log.Printf("Open session error: %v", err)
		return
	}
	defer b.closeSession(ctx, client)

	details, err := client.GetBookDetails(ctx, bookID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			b.sendMessage(chatID, "😔 Книга не найдена на сайте.")
		} else {
			b.sendMessage(chatID, "❌ Не удалось получить информацию о книге. Попробуйте позже.")
		}
		log.Printf("GetBookDetails error: %v", err)
		return
	}

	// Название и автор из результатов поиска надежнее, чем из разметки карточки.
	if book, ok := b.findBookInSession(chatID, bookID); ok {
		details.Title = book.Title
		if book.Author != "" {
			details.Author = book.Author
		}
	}
	if details.Title == "" {
		details.Title = "Без названия"
	}
	if details.Author == "" {
		details.Author = "Автор неизвестен"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📖 %s\n✍️ %s\n", details.Title, details.Author)
	if len(details.Genres) > 0 {
		genres := details.Genres
		if len(genres) > 3 {
			genres = genres[:3]
		}
		fmt.Fprintf(&sb, "🏷 %s\n", strings.Join(genres, ", "))
	}
	if details.Description != "" {
		sb.WriteString("\n" + truncate(details.Description, descriptionLimit) + "\n")
	}

	formats := availableFormats(details.DownloadLinks)
	if len(formats) == 0 {
		// Разметка подвела — предлагаем ходовой набор.
		formats = []models.Format{models.FormatEPUB, models.FormatFB2, models.FormatPDF}
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, f := range formats {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(
			string(f), cbDownloadPrefix+bookID+":"+string(f)))
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	if b.sender != nil {
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("📧 Отправить на Kindle", cbKindlePrefix+bookID),
		})
	}

	msg := tgbotapi.NewMessage(chatID, sb.String())
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	b.bot.Send(msg)
}

// availableFormats сводит ссылки к уникальным известным форматам,
// сохраняя порядок документа.
func availableFormats(links []models.DownloadLink) []models.Format {
	var formats []models.Format
	seen := make(map[models.Format]struct{})
	for _, link := range links {
		if link.Format == models.FormatUnknown {
			continue
		}
		if _, ok := seen[link.Format]; ok {
			continue
		}
		seen[link.Format] = struct{}{}
		formats = append(formats, link.Format)
	}
	return formats
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return strings.TrimSpace(string(runes[:limit])) + "…"
}

// downloadToChat качает книгу и отправляет файлом в чат.
func (b *Bot) downloadToChat(chatID int64, from *tgbotapi.User, bookID string, format models.Format) {
	loadingMsg, errLoading := b.bot.Send(tgbotapi.NewMessage(chatID, "⏳ Скачиваю файл... Подождите..."))
	deleteLoadingMsg := func() {
		if errLoading == nil && loadingMsg.MessageID != 0 {
			b.bot.Send(tgbotapi.NewDeleteMessage(chatID, loadingMsg.MessageID))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()

	content, filename, err := b.downloadBook(ctx, bookID, format)
	if err != nil {
		deleteLoadingMsg()
		if errors.Is(err, service.ErrNotFound) {
			b.sendMessage(chatID, "😔 Такого формата у книги нет.")
		} else {
			b.sendMessage(chatID, "❌ Не удалось скачать файл. Попробуйте позже.")
		}
		log.Printf("Download error: %v", err)
		return
	}

	title, author := b.bookTitleAuthor(chatID, bookID)
	if b.store != nil {
		if err := b.store.EnsureUser(ctx, from.ID, from.UserName); err != nil {
			log.Printf("EnsureUser error: %v", err)
		} else if err := b.store.SaveDownload(ctx, from.ID, title, author, string(format)); err != nil {
			log.Printf("SaveDownload error: %v", err)
		}
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: filename, Bytes: content})
	doc.Caption = "📖 Ваша книга. Приятного чтения!"
	if _, err := b.bot.Send(doc); err != nil {
		deleteLoadingMsg()
		b.sendMessage(chatID, "❌ Ошибка при отправке файла в Telegram.")
		log.Printf("Send file error: %v", err)
		return
	}
	deleteLoadingMsg()
}

func (b *Bot) downloadBook(ctx context.Context, bookID string, format models.Format) ([]byte, string, error) {
	client, err := b.openSession(ctx)
	if err != nil {
		return nil, "", err
	}
	defer b.closeSession(ctx, client)

	return client.Download(ctx, bookID, format)
}

func (b *Bot) bookTitleAuthor(chatID int64, bookID string) (string, string) {
	if book, ok := b.findBookInSession(chatID, bookID); ok {
		return book.Title, book.Author
	}
	return "Книга " + bookID, ""
}

// sendToKindle — полный сценарий отправки: блокировка от дублей,
// проверка истории, скачивание EPUB и письмо.
func (b *Bot) sendToKindle(chatID int64, from *tgbotapi.User, bookID string) {
	if b.sender == nil {
		b.sendMessage(chatID, "⚠️ Отправка на Kindle не настроена.")
		return
	}

	recipientKey := strconv.FormatInt(from.ID, 10)
	if !b.guard.TryAcquire(recipientKey, bookID) {
		b.sendMessage(chatID, "⏳ Эта книга уже отправляется. Подождите немного.")
		return
	}
	defer b.guard.Release(recipientKey, bookID)

	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()

	title, author := b.bookTitleAuthor(chatID, bookID)

	if b.store != nil {
		sent, err := b.store.WasSentToKindle(ctx, from.ID, title, author)
		if err != nil {
			log.Printf("WasSentToKindle error: %v", err)
		} else if sent {
			b.sendMessage(chatID, "📬 Эта книга уже отправлялась на ваш Kindle.")
			return
		}
	}

	recipient := ""
	if b.store != nil {
		addr, err := b.store.KindleEmail(ctx, from.ID)
		if err != nil {
			log.Printf("KindleEmail error: %v", err)
		} else {
			recipient = addr
		}
	}

	content, _, err := b.downloadBook(ctx, bookID, models.FormatEPUB)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			b.sendMessage(chatID, "😔 У книги нет EPUB версии, на Kindle отправить не получится.")
		} else {
			b.sendMessage(chatID, "❌ Не удалось скачать книгу. Попробуйте позже.")
		}
		log.Printf("Kindle download error: %v", err)
		return
	}

	if err := b.sender.SendBook(content, title, author, recipient); err != nil {
		b.sendMessage(chatID, "❌ Не удалось отправить книгу на Kindle. Попробуйте позже.")
		log.Printf("Kindle send error: %v", err)
		return
	}

	if b.store != nil {
		if err := b.store.EnsureUser(ctx, from.ID, from.UserName); err != nil {
			log.Printf("EnsureUser error: %v", err)
		} else if err := b.store.SaveKindleSent(ctx, from.ID, title, author); err != nil {
			log.Printf("SaveKindleSent error: %v", err)
		}
	}

	b.sendMessage(chatID, "✅ Книга отправлена на Kindle! Проверьте устройство через пару минут.")
}

// --- Настройка email для Kindle ---

func (b *Bot) promptKindleEmail(chatID int64, userID int64) {
	current := ""
	if b.store != nil {
		if addr, err := b.store.KindleEmail(context.Background(), userID); err == nil {
			current = addr
		}
	}

	text := "Пришлите email вашего Kindle (вида name@kindle.com)."
	if current != "" {
		text = "Сейчас настроен адрес: " + current + "\n" + text
	}

	b.setAwaitingEmail(chatID)
	b.sendMessage(chatID, text)
}

func (b *Bot) setAwaitingEmail(chatID int64) {
	b.awaitingEmailMu.Lock()
	defer b.awaitingEmailMu.Unlock()
	b.awaitingEmail[chatID] = struct{}{}
}

// takeAwaitingEmail снимает флаг ожидания и сообщает, был ли он установлен.
func (b *Bot) takeAwaitingEmail(chatID int64) bool {
	b.awaitingEmailMu.Lock()
	defer b.awaitingEmailMu.Unlock()
	if _, ok := b.awaitingEmail[chatID]; !ok {
		return false
	}
	delete(b.awaitingEmail, chatID)
	return true
}

func (b *Bot) handleKindleEmailInput(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	addr := strings.TrimSpace(msg.Text)

	if !emailRe.MatchString(addr) {
		b.setAwaitingEmail(chatID)
		b.sendMessage(chatID, "⚠️ Это не похоже на email. Попробуйте ещё раз.")
		return
	}

	if b.store == nil {
		b.sendMessage(chatID, "⚠️ Хранилище недоступно, адрес не сохранен.")
		return
	}

	ctx := context.Background()
	if err := b.store.EnsureUser(ctx, msg.From.ID, msg.From.UserName); err != nil {
		log.Printf("EnsureUser error: %v", err)
	}
	if err := b.store.SetKindleEmail(ctx, msg.From.ID, addr); err != nil {
		b.sendMessage(chatID, "❌ Не удалось сохранить адрес. Попробуйте позже.")
		log.Printf("SetKindleEmail error: %v", err)
		return
	}

	b.sendMessage(chatID, "✅ Адрес сохранен: "+addr+
		"\nНе забудьте разрешить отправителя в настройках Amazon.")
}

// --- История ---

func (b *Bot) showDownloadHistory(chatID int64, userID int64) {
	if b.store == nil {
		b.sendMessage(chatID, "⚠️ История недоступна.")
		return
	}

	items, err := b.store.DownloadHistory(context.Background(), userID, 10)
	if err != nil {
		b.sendMessage(chatID, "❌ Не удалось получить историю.")
		log.Printf("DownloadHistory error: %v", err)
		return
	}
	if len(items) == 0 {
		b.sendMessage(chatID, "История скачиваний пуста.")
		return
	}

	var sb strings.Builder
	sb.WriteString("📥 Последние скачивания:\n\n")
	for i, item := range items {
		fmt.Fprintf(&sb, "%d. %s", i+1, item.Title)
		if item.Author != "" {
			fmt.Fprintf(&sb, " — %s", item.Author)
		}
		if item.Format != "" {
			fmt.Fprintf(&sb, " (%s)", item.Format)
		}
		sb.WriteString("\n")
	}
	b.sendMessage(chatID, sb.String())
}

func (b *Bot) showKindleHistory(chatID int64, userID int64) {
	if b.store == nil {
		b.sendMessage(chatID, "⚠️ История недоступна.")
		return
	}

	items, err := b.store.KindleHistory(context.Background(), userID, 10)
	if err != nil {
		b.sendMessage(chatID, "❌ Не удалось получить историю.")
		log.Printf("KindleHistory error: %v", err)
		return
	}
	if len(items) == 0 {
		b.sendMessage(chatID, "На Kindle пока ничего не отправлялось.")
		return
	}

	var sb strings.Builder
	sb.WriteString("📧 Отправлено на Kindle:\n\n")
	for i, item := range items {
		fmt.Fprintf(&sb, "%d. %s", i+1, item.Title)
		if item.Author != "" {
			fmt.Fprintf(&sb, " — %s", item.Author)
		}
		sb.WriteString("\n")
	}
	b.sendMessage(chatID, sb.String())
}

// --- Администрирование ---

// isAdminOrBootstrap: пока админов нет совсем, команды настройки доступны
// любому — иначе первого админа некому назначить.
func (b *Bot) isAdminOrBootstrap(ctx context.Context, userID int64) bool {
	if b.store == nil {
		return false
	}

	ok, err := b.store.IsAdmin(ctx, userID)
	if err != nil {
		log.Printf("IsAdmin error: %v", err)
		return false
	}
	if ok {
		return true
	}

	admins, err := b.store.ListAdmins(ctx)
	if err != nil {
		log.Printf("ListAdmins error: %v", err)
		return false
	}
	return len(admins) == 0
}

func (b *Bot) handleAddAdmin(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	ctx := context.Background()

	if !b.isAdminOrBootstrap(ctx, msg.From.ID) {
		b.sendMessage(chatID, "⛔ Команда доступна только администраторам.")
		return
	}

	arg := strings.TrimSpace(msg.CommandArguments())
	targetID := msg.From.ID
	if arg != "" {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			b.sendMessage(chatID, "Использование: /addadmin <telegram id>")
			return
		}
		targetID = id
	}

	if err := b.store.AddAdmin(ctx, targetID, msg.From.UserName); err != nil {
		b.sendMessage(chatID, "❌ Не удалось добавить администратора.")
		log.Printf("AddAdmin error: %v", err)
		return
	}
	b.sendMessage(chatID, fmt.Sprintf("✅ Администратор %d добавлен.", targetID))
}

func (b *Bot) handleRemoveAdmin(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	ctx := context.Background()

	if !b.isAdminOrBootstrap(ctx, msg.From.ID) {
		b.sendMessage(chatID, "⛔ Команда доступна только администраторам.")
		return
	}

	arg := strings.TrimSpace(msg.CommandArguments())
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		b.sendMessage(chatID, "Использование: /deladmin <telegram id>")
		return
	}

	if err := b.store.RemoveAdmin(ctx, id); err != nil {
		b.sendMessage(chatID, "❌ Не удалось удалить администратора.")
		log.Printf("RemoveAdmin error: %v", err)
		return
	}
	b.sendMessage(chatID, fmt.Sprintf("✅ Администратор %d удален.", id))
}

func (b *Bot) handleListAdmins(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	ctx := context.Background()

	if !b.isAdminOrBootstrap(ctx, msg.From.ID) {
		b.sendMessage(chatID, "⛔ Команда доступна только администраторам.")
		return
	}

	admins, err := b.store.ListAdmins(ctx)
	if err != nil {
		b.sendMessage(chatID, "❌ Не удалось получить список.")
		log.Printf("ListAdmins error: %v", err)
		return
	}
	if len(admins) == 0 {
		b.sendMessage(chatID, "Администраторы не назначены. /addadmin назначит вас.")
		return
	}

	var sb strings.Builder
	sb.WriteString("👮 Администраторы:\n")
	for _, a := range admins {
		fmt.Fprintf(&sb, "• %d", a.TelegramID)
		if a.Username != "" {
			fmt.Fprintf(&sb, " (@%s)", a.Username)
		}
		sb.WriteString("\n")
	}
	b.sendMessage(chatID, sb.String())
}

func (b *Bot) handleStats(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	ctx := context.Background()

	if !b.isAdminOrBootstrap(ctx, msg.From.ID) {
		b.sendMessage(chatID, "⛔ Команда доступна только администраторам.")
		return
	}

	stats, err := b.store.CollectStats(ctx)
	if err != nil {
		b.sendMessage(chatID, "❌ Не удалось собрать статистику.")
		log.Printf("CollectStats error: %v", err)
		return
	}

	b.sendMessage(chatID, fmt.Sprintf(
		"📊 Статистика:\nПользователей: %d\nСкачиваний: %d\nОтправок на Kindle: %d\nПоисков: %d",
		stats.Users, stats.Downloads, stats.Sent, stats.Searches))
}

// sendMessage — хелпер для отправки текста.
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	b.bot.Send(msg)
}
