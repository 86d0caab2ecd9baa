package service

import (
	"bytes"
	"context"
	"log"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"kindlebot/internal/models"
	"kindlebot/internal/network"
	"kindlebot/internal/parser"
)

const (
	defaultConnectTimeout = 10 * time.Second
	defaultTotalTimeout   = 30 * time.Second
)

// Фиксированный набор заголовков, имитирующий браузер.
var browserHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Accept-Language": "ru-RU,ru;q=0.8,en-US;q=0.5,en;q=0.3",
}

// Options собирает настройки одной сессии.
type Options struct {
	// BaseURL — адрес каталога, например https://flibusta.is.
	BaseURL string

	// ProxyAddr — адрес SOCKS5 прокси (Tor). Пустая строка — прямое соединение.
	ProxyAddr string

	// Timeout ограничивает весь запрос целиком. По умолчанию 30 секунд.
	Timeout time.Duration

	// PaceDelay — пауза после каждого запроса. По умолчанию 1 секунда.
	PaceDelay time.Duration
}

// FlibustaClient — одна сессия работы с каталогом: свой cookie jar, свой
// флаг авторизации. Живет один пользовательский сценарий (поиск, карточка,
// скачивание) и не разделяется между горутинами.
type FlibustaClient struct {
	http    *resty.Client
	baseURL string
	pacer   *pacer

	authenticated bool
	userID        string
}

// New открывает новую сессию.
func New(opts Options) (*FlibustaClient, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTotalTimeout
	}

	transport, err := network.NewTransport(opts.ProxyAddr, defaultConnectTimeout)
	if err != nil {
		return nil, err
	}

	client := resty.New().
		SetBaseURL(strings.TrimSuffix(opts.BaseURL, "/")).
		SetTransport(transport).
		SetTimeout(timeout).
		SetHeaders(browserHeaders).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	client.SetCookieJar(newCookieJar())

	return &FlibustaClient{
		http:    client,
		baseURL: strings.TrimSuffix(opts.BaseURL, "/"),
		pacer:   newPacer(opts.PaceDelay),
	}, nil
}

// Close освобождает пул соединений. Сессию после этого использовать нельзя.
func (c *FlibustaClient) Close() {
	c.http.GetClient().CloseIdleConnections()
}

// Authenticated reports whether Login succeeded for this session.
func (c *FlibustaClient) Authenticated() bool {
	return c.authenticated
}

// UserID returns the internal account id, when it could be extracted.
func (c *FlibustaClient) UserID() string {
	return c.userID
}

// BaseURL returns the catalogue address the session is bound to.
func (c *FlibustaClient) BaseURL() string {
	return c.baseURL
}

// get issues one GET round trip. The pacing delay applies whether or not
// the request succeeded.
func (c *FlibustaClient) get(ctx context.Context, path string, params map[string]string) (*resty.Response, error) {
	defer c.pacer.Pace()

	resp, err := c.http.R().SetContext(ctx).SetQueryParams(params).Get(path)
	if err != nil {
		return nil, &RequestError{URL: c.baseURL + path, Err: err}
	}
	return resp, nil
}

// postForm issues one form-encoded POST round trip, redirects followed.
func (c *FlibustaClient) postForm(ctx context.Context, path string, form map[string]string) (*resty.Response, error) {
	defer c.pacer.Pace()

	resp, err := c.http.R().SetContext(ctx).SetFormData(form).Post(path)
	if err != nil {
		return nil, &RequestError{URL: c.baseURL + path, Err: err}
	}
	return resp, nil
}

// Search ищет книги по произвольному запросу. limit <= 0 означает лимит по
// умолчанию (100). Пустой результат — не ошибка.
func (c *FlibustaClient) Search(ctx context.Context, query string, limit int) ([]models.BookSummary, error) {
	resp, err := c.get(ctx, "/booksearch", map[string]string{"ask": query})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &RequestError{URL: resp.Request.URL, StatusCode: resp.StatusCode()}
	}

	books, err := parser.ParseSearchResults(bytes.NewReader(resp.Body()), c.baseURL, limit)
	if err != nil {
		return nil, err
	}

	log.Printf("Поиск %q: найдено книг: %d", query, len(books))
	return books, nil
}

// GetBookDetails fetches and parses a book page. The result is re-fetched
// on every call: details are never cached.
func (c *FlibustaClient) GetBookDetails(ctx context.Context, bookID string) (models.BookDetail, error) {
	resp, err := c.get(ctx, "/b/"+bookID, nil)
	if err != nil {
		return models.BookDetail{}, err
	}
	if resp.StatusCode() == http.StatusNotFound {
		return models.BookDetail{}, ErrNotFound
	}
	if resp.StatusCode() != http.StatusOK {
		return models.BookDetail{}, &RequestError{URL: resp.Request.URL, StatusCode: resp.StatusCode()}
	}

	return parser.ParseBookDetails(bytes.NewReader(resp.Body()), c.baseURL, bookID, c.authenticated)
}

// Download скачивает книгу в указанном формате и возвращает сырые байты
// вместе с именем файла (предложенным сервером или сгенерированным).
func (c *FlibustaClient) Download(ctx context.Context, bookID string, format models.Format) ([]byte, string, error) {
	token := strings.ToLower(string(format))
	path := "/b/" + bookID + "/" + token

	resp, err := c.get(ctx, path, nil)
	if err != nil {
		return nil, "", err
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, "", ErrNotFound
	}
	if !resp.IsSuccess() {
		return nil, "", &RequestError{URL: resp.Request.URL, StatusCode: resp.StatusCode()}
	}

	filename := filenameFromHeaders(resp.Header(), bookID+"."+token)
	log.Printf("Книга %s скачана: %d байт", bookID, len(resp.Body()))
	return resp.Body(), filename, nil
}

// filenameFromHeaders вытаскивает имя файла из Content-Disposition.
func filenameFromHeaders(headers http.Header, fallback string) string {
	disposition := headers.Get("Content-Disposition")
	_, params, err := mime.ParseMediaType(disposition)
	if err == nil {
		if val, ok := params["filename"]; ok && val != "" {
			return val
		}
	}
	return fallback
}
