package parser

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"kindlebot/internal/models"
)

const (
	// Заголовок секции с описанием книги.
	annotationMarker = "Аннотация"

	// Так сайт помечает отсутствующее описание.
	annotationMissing = "отсутствует"

	siteTitleSuffix = "| Флибуста"
)

var (
	genreHrefRe = regexp.MustCompile(`/g/(\d+)`)

	// Хвост вида "(fb2)" у заголовка книжной страницы.
	trailingParensRe = regexp.MustCompile(`\s*\([^)]*\)\s*$`)

	fileExtRe = regexp.MustCompile(`\.(\w+)$`)
)

// ParseBookDetails parses a book page (/b/<id>). It is best-effort: the
// markup varies, so every optional field may stay empty. Download links are
// extracted only when authenticated is true — the site shows them only to
// logged-in users, anything found otherwise would be navigation noise.
func ParseBookDetails(body io.Reader, baseURL, bookID string, authenticated bool) (models.BookDetail, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return models.BookDetail{}, fmt.Errorf("ошибка чтения HTML: %w", err)
	}

	detail := models.BookDetail{}
	detail.ID = bookID
	detail.URL = absoluteURL(baseURL, "/b/"+bookID)

	for _, strategy := range titleStrategies {
		if title := strategy(doc); title != "" {
			detail.Title = title
			break
		}
	}

	doc.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		m := authorHrefRe.FindStringSubmatch(href)
		if m == nil {
			return true
		}
		name := CleanTitle(a.Text())
		if name == "" {
			return true
		}
		detail.Author = name
		detail.AuthorID = m[1]
		detail.AuthorURL = absoluteURL(baseURL, href)
		return false
	})

	detail.Genres = parseGenres(doc)
	detail.Description = parseAnnotation(doc)

	if authenticated {
		for _, strategy := range downloadStrategies {
			if links := strategy(doc, baseURL, bookID); links != nil {
				detail.DownloadLinks = links
				break
			}
		}
	}

	return detail, nil
}

// titleStrategy returns the page title or "" when its anchor is missing.
type titleStrategy func(doc *goquery.Document) string

var titleStrategies = []titleStrategy{
	titleFromHeading,
	titleFromPageTitle,
}

// titleFromHeading prefers the h1 carrying the Drupal title class and strips
// the trailing format suffix, e.g. "Пикник на обочине (fb2)".
func titleFromHeading(doc *goquery.Document) string {
	heading := doc.Find("h1.title, h1#page-title, #page-title").First()
	if heading.Length() == 0 {
		return ""
	}
	title := CleanTitle(heading.Text())
	return strings.TrimSpace(trailingParensRe.ReplaceAllString(title, ""))
}

// titleFromPageTitle falls back to <title>, dropping the site name suffix.
func titleFromPageTitle(doc *goquery.Document) string {
	title := CleanTitle(doc.Find("title").First().Text())
	if before, _, found := strings.Cut(title, siteTitleSuffix); found {
		title = strings.TrimSpace(before)
	}
	return title
}

func parseGenres(doc *goquery.Document) []string {
	var genres []string
	seen := make(map[string]struct{})

	doc.Find("a").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !genreHrefRe.MatchString(href) {
			return
		}
		genre := CleanTitle(a.Text())
		if utf8.RuneCountInString(genre) <= 2 {
			return
		}
		if _, ok := seen[genre]; ok {
			return
		}
		seen[genre] = struct{}{}
		genres = append(genres, genre)
	})

	return genres
}

// parseAnnotation takes the element right after the «Аннотация» heading.
func parseAnnotation(doc *goquery.Document) string {
	var description string

	doc.Find("h2").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		if strings.TrimSpace(h.Text()) != annotationMarker {
			return true
		}
		next := h.Next()
		if next.Length() == 0 || next.Is("br") {
			return false
		}
		text := CleanTitle(next.Text())
		if text == "" || strings.EqualFold(text, annotationMissing) {
			return false
		}
		description = text
		return false
	})

	return description
}

// downloadStrategy enumerates download links. nil means the strategy's
// anchor is missing; a non-nil slice is a final answer.
type downloadStrategy func(doc *goquery.Document, baseURL, bookID string) []models.DownloadLink

var downloadStrategies = []downloadStrategy{
	downloadsFromFormatSelect,
	downloadsFromAnchors,
}

// downloadsFromFormatSelect reads the format selector the site renders for
// authenticated users and builds deterministic /b/<id>/<format> URLs.
func downloadsFromFormatSelect(doc *goquery.Document, baseURL, bookID string) []models.DownloadLink {
	options := doc.Find("select#useropt option")
	if options.Length() == 0 {
		return nil
	}

	var links []models.DownloadLink
	options.Each(func(_ int, opt *goquery.Selection) {
		value := strings.TrimSpace(opt.AttrOr("value", ""))
		if value == "" {
			return
		}
		links = append(links, models.DownloadLink{
			Format: models.ParseFormat(value),
			URL:    absoluteURL(baseURL, "/b/"+bookID+"/"+strings.ToLower(value)),
			Label:  "Скачать в формате " + strings.ToUpper(value),
		})
	})

	return links
}

// Путь скачивания в одном из известных вариантов разметки.
var downloadHrefRes = []*regexp.Regexp{
	regexp.MustCompile(`/download/\w+`),
	regexp.MustCompile(`/get/\w+`),
	regexp.MustCompile(`/book/\d+/\w+`),
	regexp.MustCompile(`/b/\d+/[\w.]+`),
}

// downloadsFromAnchors is the fallback when the selector is absent: scan all
// anchors against the known download path patterns.
func downloadsFromAnchors(doc *goquery.Document, baseURL, bookID string) []models.DownloadLink {
	var links []models.DownloadLink
	seen := make(map[string]struct{})

	doc.Find("a").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if href == "" || !matchesDownloadPath(href) {
			return
		}

		// Навигационные действия на книжной странице — не скачивание.
		switch lastPathSegment(href) {
		case "read", "edit", "comments":
			return
		}

		target := absoluteURL(baseURL, href)
		if _, ok := seen[target]; ok {
			return
		}
		seen[target] = struct{}{}

		label := CleanTitle(a.Text())
		links = append(links, models.DownloadLink{
			Format: inferFormat(href, label),
			URL:    target,
			Label:  label,
		})
	})

	return links
}

func matchesDownloadPath(href string) bool {
	for _, re := range downloadHrefRes {
		if re.MatchString(href) {
			return true
		}
	}
	return false
}

func lastPathSegment(href string) string {
	href = strings.SplitN(href, "?", 2)[0]
	href = strings.SplitN(href, "#", 2)[0]
	if i := strings.LastIndex(href, "/"); i >= 0 {
		return strings.ToLower(href[i+1:])
	}
	return strings.ToLower(href)
}

// inferFormat deduces the format tag: URL suffix first, then the link text
// suffix, then keywords in either. UNKNOWN links are still kept.
func inferFormat(href, text string) models.Format {
	if m := fileExtRe.FindStringSubmatch(lastPathSegment(href)); m != nil {
		if f := models.ParseFormat(m[1]); f != models.FormatUnknown {
			return f
		}
	}
	if f := models.ParseFormat(lastPathSegment(href)); f != models.FormatUnknown {
		return f
	}
	if m := fileExtRe.FindStringSubmatch(strings.TrimSpace(text)); m != nil {
		if f := models.ParseFormat(m[1]); f != models.FormatUnknown {
			return f
		}
	}

	haystack := strings.ToLower(href + " " + text)
	for _, f := range []models.Format{models.FormatFB2, models.FormatEPUB, models.FormatMOBI, models.FormatPDF, models.FormatTXT} {
		if strings.Contains(haystack, strings.ToLower(string(f))) {
			return f
		}
	}
	return models.FormatUnknown
}
