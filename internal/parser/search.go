package parser

import (
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"kindlebot/internal/models"
)

// DefaultLimit caps a search when the caller didn't pass its own limit.
const DefaultLimit = 100

// Заголовок секции с результатами на странице /booksearch.
const foundBooksMarker = "Найденные книги"

var (
	bookHrefRe   = regexp.MustCompile(`/b/(\d+)`)
	authorHrefRe = regexp.MustCompile(`/a/(\d+)`)
	spaceRe      = regexp.MustCompile(`\s+`)
)

// CleanTitle collapses whitespace left over after the search highlight
// markup is stripped.
func CleanTitle(raw string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(raw, " "))
}

// searchStrategy extracts result rows from the document. A strategy returns
// nil when its structural anchor is missing so the next one can take over;
// a non-nil (possibly empty) slice is a final answer.
type searchStrategy func(doc *goquery.Document, baseURL string, limit int) []models.BookSummary

var searchStrategies = []searchStrategy{
	searchByResultsHeading,
	searchByBookAnchors,
}

// ParseSearchResults extracts up to limit books from a search results page,
// in document order. An empty slice is a valid "nothing found" outcome, not
// an error.
func ParseSearchResults(body io.Reader, baseURL string, limit int) ([]models.BookSummary, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения HTML: %w", err)
	}

	if limit <= 0 {
		limit = DefaultLimit
	}

	for _, strategy := range searchStrategies {
		if books := strategy(doc, baseURL, limit); books != nil {
			return books, nil
		}
	}
	return []models.BookSummary{}, nil
}

// searchByResultsHeading is the primary strategy: the list right after the
// «Найденные книги» heading, one result per list item.
func searchByResultsHeading(doc *goquery.Document, baseURL string, limit int) []models.BookSummary {
	var list *goquery.Selection

	doc.Find("h3").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		if !strings.Contains(h.Text(), foundBooksMarker) {
			return true
		}
		ul := h.NextAllFiltered("ul").First()
		if ul.Length() == 0 {
			return true
		}
		list = ul
		return false
	})

	if list == nil {
		return nil
	}

	var books []models.BookSummary
	list.Find("li").EachWithBreak(func(_ int, item *goquery.Selection) bool {
		if len(books) >= limit {
			return false
		}
		if book, ok := parseSearchItem(item, baseURL); ok {
			books = append(books, book)
		}
		return true
	})

	if books == nil {
		books = []models.BookSummary{}
	}
	return books
}

func parseSearchItem(item *goquery.Selection, baseURL string) (models.BookSummary, bool) {
	var book models.BookSummary

	item.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		m := bookHrefRe.FindStringSubmatch(href)
		if m == nil {
			return true
		}
		book.ID = m[1]
		book.URL = absoluteURL(baseURL, href)
		book.Title = CleanTitle(a.Text())
		return false
	})

	if book.ID == "" || book.Title == "" {
		return models.BookSummary{}, false
	}

	item.Find("a").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		m := authorHrefRe.FindStringSubmatch(href)
		if m == nil {
			return
		}
		name := CleanTitle(a.Text())
		if name == "" {
			return
		}
		if book.Author == "" {
			book.Author = name
			book.AuthorID = m[1]
			book.AuthorURL = absoluteURL(baseURL, href)
		}
		book.CoAuthors = append(book.CoAuthors, name)
	})

	// Один автор — не соавторство.
	if len(book.CoAuthors) < 2 {
		book.CoAuthors = nil
	}

	return book, true
}

// searchByBookAnchors is the fallback: the heading is gone, so scan the
// whole document for book links and synthesize minimal records.
func searchByBookAnchors(doc *goquery.Document, baseURL string, limit int) []models.BookSummary {
	books := []models.BookSummary{}

	doc.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if len(books) >= limit {
			return false
		}
		href, _ := a.Attr("href")
		m := bookHrefRe.FindStringSubmatch(href)
		if m == nil {
			return true
		}
		title := CleanTitle(a.Text())
		if title == "" {
			return true
		}
		books = append(books, models.BookSummary{
			ID:    m[1],
			Title: title,
			URL:   absoluteURL(baseURL, href),
		})
		return true
	})

	return books
}

// absoluteURL разрешает href относительно адреса каталога. Непарсящиеся
// значения возвращаются как есть.
func absoluteURL(baseURL, href string) string {
	if href == "" {
		return href
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
