package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"kindlebot/internal/models"
)

const bookPage = `<html>
<head><title>Пикник на обочине | Флибуста</title></head>
<body>
<h1 class="title" id="page-title">Пикник на обочине (fb2)</h1>
<a href="/a/100">Аркадий Стругацкий</a>
<a href="/g/15">Научная фантастика</a>
<a href="/g/16">НФ</a>
<a href="/g/17">Социальная фантастика</a>
<a href="/g/15">Научная фантастика</a>
<h2>Аннотация</h2>
<p>Посещение оставило после себя Зоны.   Сталкеры ходят туда за хабаром.</p>
<select id="useropt">
  <option value="fb2">fb2</option>
  <option value="epub">epub</option>
  <option value="mobi">mobi</option>
</select>
</body></html>`

func TestParseBookDetails(t *testing.T) {
	detail, err := ParseBookDetails(strings.NewReader(bookPage), baseURL, "2156", true)
	require.NoError(t, err)

	require.Equal(t, "2156", detail.ID)
	require.Equal(t, baseURL+"/b/2156", detail.URL)

	// Суффикс формата "(fb2)" отрезан от заголовка.
	require.Equal(t, "Пикник на обочине", detail.Title)

	require.Equal(t, "Аркадий Стругацкий", detail.Author)
	require.Equal(t, "100", detail.AuthorID)

	// "НФ" отфильтрован (короче 3 символов), дубликат схлопнут.
	require.Equal(t, []string{"Научная фантастика", "Социальная фантастика"}, detail.Genres)

	require.Equal(t, "Посещение оставило после себя Зоны. Сталкеры ходят туда за хабаром.", detail.Description)

	require.Len(t, detail.DownloadLinks, 3)
	require.Equal(t, models.FormatFB2, detail.DownloadLinks[0].Format)
	require.Equal(t, baseURL+"/b/2156/fb2", detail.DownloadLinks[0].URL)
	require.Equal(t, models.FormatEPUB, detail.DownloadLinks[1].Format)
	require.Equal(t, models.FormatMOBI, detail.DownloadLinks[2].Format)
}

func TestParseBookDetailsUnauthenticated(t *testing.T) {
	detail, err := ParseBookDetails(strings.NewReader(bookPage), baseURL, "2156", false)
	require.NoError(t, err)
	require.Empty(t, detail.DownloadLinks)
}

func TestParseBookDetailsTitleFallback(t *testing.T) {
	page := `<html><head><title>Трудно быть богом | Флибуста</title></head>
	<body><p>ни одного заголовка</p></body></html>`

	detail, err := ParseBookDetails(strings.NewReader(page), baseURL, "1", false)
	require.NoError(t, err)
	require.Equal(t, "Трудно быть богом", detail.Title)
}

func TestParseBookDetailsMissingAnnotation(t *testing.T) {
	page := `<html><body>
	<h1 class="title">Книга без описания</h1>
	<h2>Аннотация</h2>
	<p>отсутствует</p>
	</body></html>`

	detail, err := ParseBookDetails(strings.NewReader(page), baseURL, "1", false)
	require.NoError(t, err)
	require.Empty(t, detail.Description)
}

func TestParseBookDetailsDownloadFallback(t *testing.T) {
	// Селектора форматов нет: ссылки собираются по известным шаблонам путей.
	page := `<html><body>
	<h1 class="title">Книга</h1>
	<a href="/b/99/fb2">FB2</a>
	<a href="/b/99/read">Читать онлайн</a>
	<a href="/get/book.epub">Скачать epub</a>
	<a href="/download/x">что-то в формате mobi</a>
	<a href="/download/weird">непонятная ссылка</a>
	</body></html>`

	detail, err := ParseBookDetails(strings.NewReader(page), baseURL, "99", true)
	require.NoError(t, err)
	require.Len(t, detail.DownloadLinks, 4)

	byURL := map[string]models.Format{}
	for _, link := range detail.DownloadLinks {
		byURL[link.URL] = link.Format
	}

	// Формат из сегмента пути.
	require.Equal(t, models.FormatFB2, byURL[baseURL+"/b/99/fb2"])
	// Формат из расширения файла.
	require.Equal(t, models.FormatEPUB, byURL[baseURL+"/get/book.epub"])
	// Формат из текста ссылки.
	require.Equal(t, models.FormatMOBI, byURL[baseURL+"/download/x"])
	// Нераспознанный формат сохраняется как UNKNOWN, ссылка не теряется.
	require.Equal(t, models.FormatUnknown, byURL[baseURL+"/download/weird"])

	// Навигационное действие /b/99/read отброшено.
	require.NotContains(t, byURL, baseURL+"/b/99/read")
}
