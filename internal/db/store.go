package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

// DownloadRecord — строка истории скачиваний.
type DownloadRecord struct {
	Title        string
	Author       string
	Format       string
	DownloadedAt string
}

// SentRecord — строка истории отправок на Kindle.
type SentRecord struct {
	Title  string
	Author string
	SentAt string
}

// Admin — запись администратора бота.
type Admin struct {
	TelegramID int64
	Username   string
}

// Stats — сводные счетчики для админ-панели.
type Stats struct {
	Users     int64
	Downloads int64
	Sent      int64
	Searches  int64
}

func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("путь к SQLite пустой")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию БД: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия БД: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragma := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA foreign_keys = ON;",
		"PRAGMA busy_timeout = 5000;",
	}

	for _, stmt := range pragma {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("ошибка PRAGMA: %w", err)
		}
	}
	return nil
}

func migrate(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS users (
	telegram_id INTEGER PRIMARY KEY,
	username TEXT,
	kindle_email TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS downloaded_books (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	telegram_id INTEGER NOT NULL,
	book_title TEXT NOT NULL,
	book_author TEXT,
	format TEXT,
	downloaded_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_downloaded_books_user ON downloaded_books(telegram_id);

CREATE TABLE IF NOT EXISTS kindle_sent_books (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	telegram_id INTEGER NOT NULL,
	book_title TEXT NOT NULL,
	book_author TEXT,
	sent_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_kindle_sent_books_user ON kindle_sent_books(telegram_id);

CREATE TABLE IF NOT EXISTS search_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	telegram_id INTEGER NOT NULL,
	query TEXT NOT NULL,
	results_count INTEGER,
	searched_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS admin_users (
	telegram_id INTEGER PRIMARY KEY,
	username TEXT,
	added_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("ошибка миграции: %w", err)
	}
	return nil
}

func (s *Store) EnsureUser(ctx context.Context, telegramID int64, username string) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO users (telegram_id, username)
VALUES (?, ?)
ON CONFLICT(telegram_id) DO UPDATE SET username = excluded.username
`, telegramID, username)
	if err != nil {
		return fmt.Errorf("ошибка сохранения пользователя: %w", err)
	}
	return nil
}

// KindleEmail возвращает персональный адрес Kindle пользователя
// (пустая строка — адрес не настроен).
func (s *Store) KindleEmail(ctx context.Context, telegramID int64) (string, error) {
	var addr sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT kindle_email FROM users WHERE telegram_id = ?`, telegramID).Scan(&addr)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("ошибка чтения kindle email: %w", err)
	}
	return addr.String, nil
}

func (s *Store) SetKindleEmail(ctx context.Context, telegramID int64, addr string) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO users (telegram_id, kindle_email)
VALUES (?, ?)
ON CONFLICT(telegram_id) DO UPDATE SET kindle_email = excluded.kindle_email
`, telegramID, addr)
	if err != nil {
		return fmt.Errorf("ошибка сохранения kindle email: %w", err)
	}
	return nil
}

func (s *Store) SaveDownload(ctx context.Context, telegramID int64, title, author, format string) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO downloaded_books (telegram_id, book_title, book_author, format)
VALUES (?, ?, ?, ?)
`, telegramID, title, author, format)
	if err != nil {
		return fmt.Errorf("ошибка сохранения скачивания: %w", err)
	}
	return nil
}

func (s *Store) SaveKindleSent(ctx context.Context, telegramID int64, title, author string) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO kindle_sent_books (telegram_id, book_title, book_author)
VALUES (?, ?, ?)
`, telegramID, title, author)
	if err != nil {
		return fmt.Errorf("ошибка сохранения отправки: %w", err)
	}
	return nil
}

// WasSentToKindle — историческая проверка дубликатов. Не заменяет
// блокировку текущих отправок: это два независимых механизма.
func (s *Store) WasSentToKindle(ctx context.Context, telegramID int64, title, author string) (bool, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM kindle_sent_books
WHERE telegram_id = ? AND book_title = ? AND book_author = ?
`, telegramID, title, author).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки отправки: %w", err)
	}
	return count > 0, nil
}

func (s *Store) SaveSearch(ctx context.Context, telegramID int64, query string, results int) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO search_history (telegram_id, query, results_count)
VALUES (?, ?, ?)
`, telegramID, query, results)
	if err != nil {
		return fmt.Errorf("ошибка сохранения поиска: %w", err)
	}
	return nil
}

func (s *Store) DownloadHistory(ctx context.Context, telegramID int64, limit int) ([]DownloadRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT book_title, book_author, format, downloaded_at
FROM downloaded_books
WHERE telegram_id = ?
ORDER BY downloaded_at DESC, id DESC
LIMIT ?
`, telegramID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения истории скачиваний: %w", err)
	}
	defer rows.Close()

	var items []DownloadRecord
	for rows.Next() {
		var item DownloadRecord
		var author, format sql.NullString
		if err := rows.Scan(&item.Title, &author, &format, &item.DownloadedAt); err != nil {
			return nil, fmt.Errorf("ошибка скана истории: %w", err)
		}
		item.Author = author.String
		item.Format = format.String
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка rows: %w", err)
	}
	return items, nil
}

func (s *Store) KindleHistory(ctx context.Context, telegramID int64, limit int) ([]SentRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT book_title, book_author, sent_at
FROM kindle_sent_books
WHERE telegram_id = ?
ORDER BY sent_at DESC, id DESC
LIMIT ?
`, telegramID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения истории отправок: %w", err)
	}
	defer rows.Close()

	var items []SentRecord
	for rows.Next() {
		var item SentRecord
		var author sql.NullString
		if err := rows.Scan(&item.Title, &author, &item.SentAt); err != nil {
			return nil, fmt.Errorf("ошибка скана истории: %w", err)
		}
		item.Author = author.String
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка rows: %w", err)
	}
	return items, nil
}

func (s *Store) IsAdmin(ctx context.Context, telegramID int64) (bool, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM admin_users WHERE telegram_id = ?`, telegramID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки админа: %w", err)
	}
	return count > 0, nil
}

func (s *Store) AddAdmin(ctx context.Context, telegramID int64, username string) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO admin_users (telegram_id, username)
VALUES (?, ?)
ON CONFLICT(telegram_id) DO UPDATE SET username = excluded.username
`, telegramID, username)
	if err != nil {
		return fmt.Errorf("ошибка добавления админа: %w", err)
	}
	return nil
}

func (s *Store) RemoveAdmin(ctx context.Context, telegramID int64) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM admin_users WHERE telegram_id = ?`, telegramID)
	if err != nil {
		return fmt.Errorf("ошибка удаления админа: %w", err)
	}
	return nil
}

func (s *Store) ListAdmins(ctx context.Context) ([]Admin, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT telegram_id, username FROM admin_users ORDER BY added_at`)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения админов: %w", err)
	}
	defer rows.Close()

	var admins []Admin
	for rows.Next() {
		var a Admin
		var username sql.NullString
		if err := rows.Scan(&a.TelegramID, &username); err != nil {
			return nil, fmt.Errorf("ошибка скана админов: %w", err)
		}
		a.Username = username.String
		admins = append(admins, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка rows: %w", err)
	}
	return admins, nil
}

func (s *Store) CollectStats(ctx context.Context) (Stats, error) {
	var stats Stats
	counters := []struct {
		query string
		dst   *int64
	}{
		{`SELECT COUNT(*) FROM users`, &stats.Users},
		{`SELECT COUNT(*) FROM downloaded_books`, &stats.Downloads},
		{`SELECT COUNT(*) FROM kindle_sent_books`, &stats.Sent},
		{`SELECT COUNT(*) FROM search_history`, &stats.Searches},
	}

	for _, c := range counters {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dst); err != nil {
			return Stats{}, fmt.Errorf("ошибка сбора статистики: %w", err)
		}
	}
	return stats, nil
}
