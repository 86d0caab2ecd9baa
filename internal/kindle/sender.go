// Package kindle доставляет скачанные книги на Kindle по почте.
package kindle

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"log"
	"net/smtp"
	"regexp"
	"strings"
	"unicode"

	"github.com/jordan-wright/email"
)

// Config — настройки SMTP и адрес получателя по умолчанию.
type Config struct {
	Server   string // например smtp.gmail.com
	Port     int    // 465 (SSL)
	Login    string
	Password string

	// DefaultRecipient используется, когда у пользователя не настроен
	// собственный адрес Kindle.
	DefaultRecipient string
}

type Sender struct {
	cfg Config
}

func NewSender(cfg Config) (*Sender, error) {
	if cfg.Login == "" || cfg.Password == "" {
		return nil, fmt.Errorf("не указаны учетные данные SMTP")
	}
	if cfg.Server == "" {
		return nil, fmt.Errorf("не указан SMTP сервер")
	}
	return &Sender{cfg: cfg}, nil
}

// SendBook отправляет книгу вложением на адрес recipient (или на адрес по
// умолчанию, если recipient пуст).
func (s *Sender) SendBook(content []byte, title, author, recipient string) error {
	if recipient == "" {
		recipient = s.cfg.DefaultRecipient
	}
	if recipient == "" {
		return fmt.Errorf("не указан email получателя")
	}

	mail := email.NewEmail()
	mail.From = s.cfg.Login
	mail.To = []string{recipient}
	mail.Subject = "Книга: " + title

	body := "Отправляю книгу: " + strings.Trim(title, `"'`) + "\n"
	if author != "" {
		body += "Автор: " + author + "\n"
	}
	body += "\nКнига прикреплена к письму."
	mail.Text = []byte(body)

	filename := SanitizeFilename(title) + ".epub"
	if _, err := mail.Attach(bytes.NewReader(content), filename, "application/epub+zip"); err != nil {
		return fmt.Errorf("ошибка вложения: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Server, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.Login, s.cfg.Password, s.cfg.Server)
	if err := mail.SendWithTLS(addr, auth, &tls.Config{ServerName: s.cfg.Server}); err != nil {
		return fmt.Errorf("ошибка отправки письма: %w", err)
	}

	log.Printf("Книга %q отправлена на %s", title, recipient)
	return nil
}

var (
	quotesRe     = regexp.MustCompile(`["']`)
	badCharsRe   = regexp.MustCompile(`[^\w\-]`)
	underscoreRe = regexp.MustCompile(`_+`)
)

// Транслитерация кириллицы: почтовые шлюзы Kindle плохо переносят
// не-ASCII имена вложений.
var translit = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "e",
	'ж': "zh", 'з': "z", 'и': "i", 'й': "y", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "h", 'ц': "ts", 'ч': "ch", 'ш': "sh", 'щ': "sch",
	'ъ': "", 'ы': "y", 'ь': "", 'э': "e", 'ю': "yu", 'я': "ya",
}

// SanitizeFilename приводит название книги к безопасному ASCII имени файла.
func SanitizeFilename(title string) string {
	name := quotesRe.ReplaceAllString(title, "")
	name = strings.ReplaceAll(strings.TrimSpace(name), " ", "_")

	var b strings.Builder
	for _, r := range name {
		tr, ok := translit[unicode.ToLower(r)]
		if !ok {
			b.WriteRune(r)
			continue
		}
		if unicode.IsUpper(r) && tr != "" {
			tr = strings.ToUpper(tr[:1]) + tr[1:]
		}
		b.WriteString(tr)
	}

	name = badCharsRe.ReplaceAllString(b.String(), "")
	name = underscoreRe.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_")

	if len(name) > 50 {
		name = name[:50]
		name = strings.Trim(name, "_")
	}
	if name == "" {
		name = "book"
	}
	return name
}
