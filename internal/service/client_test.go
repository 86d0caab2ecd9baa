package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"kindlebot/internal/models"
	"kindlebot/internal/parser"
)

const loginFormPage = `<html><body>
<form method="post" action="/user/login">
  <input type="hidden" name="csrf_token" value="tok-123">
</form>
</body></html>`

const profilePage = `<html><body>
<a href="/user/logout">Выход</a>
<a href="/user/42">Профиль</a>
</body></html>`

const searchResultsPage = `<html><body>
<h3>Найденные книги</h3>
<ul>
<li><a href="/b/10">Первая</a> - <a href="/a/1">Автор Один</a></li>
<li><a href="/b/20">Вторая</a> - <a href="/a/2">Автор Два</a></li>
</ul>
</body></html>`

// newTestClient открывает сессию к тестовому серверу и подменяет паузу
// между запросами счетчиком.
func newTestClient(t *testing.T, baseURL string) (*FlibustaClient, *int) {
	t.Helper()

	client, err := New(Options{BaseURL: baseURL})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	paced := 0
	client.pacer.sleep = func(time.Duration) { paced++ }
	return client, &paced
}

func TestLoginSuccess(t *testing.T) {
	var postedForm map[string]string

	mux := http.NewServeMux()
	mux.HandleFunc("/user/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Write([]byte(loginFormPage))
			return
		}
		require.NoError(t, r.ParseForm())
		postedForm = map[string]string{
			"name":       r.PostFormValue("name"),
			"pass":       r.PostFormValue("pass"),
			"op":         r.PostFormValue("op"),
			"csrf_token": r.PostFormValue("csrf_token"),
		}
		http.Redirect(w, r, "/user", http.StatusFound)
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(profilePage))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	client, paced := newTestClient(t, srv.URL)
	require.NoError(t, client.Login(context.Background(), "reader", "secret"))

	require.True(t, client.Authenticated())
	require.Equal(t, "42", client.UserID())

	require.Equal(t, "reader", postedForm["name"])
	require.Equal(t, "secret", postedForm["pass"])
	require.Equal(t, "Войти", postedForm["op"])
	require.Equal(t, "tok-123", postedForm["csrf_token"])

	// GET формы, POST, GET профиля — пауза после каждого запроса.
	require.Equal(t, 3, *paced)
}

func TestLoginBadCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/user/login", func(w http.ResponseWriter, r *http.Request) {
		// И при GET, и при неудачном POST остаемся на странице формы.
		w.Write([]byte(loginFormPage))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	client, _ := newTestClient(t, srv.URL)
	err := client.Login(context.Background(), "reader", "wrong")

	require.ErrorIs(t, err, ErrAuthenticationFailed)
	require.False(t, client.Authenticated())
}

func TestLoginMissingForm(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/user/login", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>Сайт на техобслуживании</body></html>"))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	client, _ := newTestClient(t, srv.URL)
	err := client.Login(context.Background(), "reader", "secret")

	require.ErrorIs(t, err, parser.ErrLoginFormNotFound)
	require.False(t, client.Authenticated())
}

func TestLoginNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // сервер уже мертв

	client, paced := newTestClient(t, srv.URL)
	err := client.Login(context.Background(), "reader", "secret")

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	require.False(t, client.Authenticated())

	// Пауза применяется и к неудачным запросам.
	require.Equal(t, 1, *paced)
}

func TestLogout(t *testing.T) {
	var loggedOut bool

	mux := http.NewServeMux()
	mux.HandleFunc("/user/logout", func(w http.ResponseWriter, r *http.Request) {
		loggedOut = true
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	client, paced := newTestClient(t, srv.URL)
	client.authenticated = true
	client.userID = "42"

	client.Logout(context.Background())

	require.True(t, loggedOut)
	require.False(t, client.Authenticated())
	require.Empty(t, client.UserID())
	require.Equal(t, 1, *paced)
}

func TestLogoutUnauthenticatedIsNoop(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/user/logout", func(w http.ResponseWriter, r *http.Request) {
		t.Error("неавторизованная сессия не должна ходить на /user/logout")
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	client, paced := newTestClient(t, srv.URL)
	client.Logout(context.Background())

	require.Equal(t, 0, *paced)
}

func TestSearch(t *testing.T) {
	var gotQuery string

	mux := http.NewServeMux()
	mux.HandleFunc("/booksearch", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("ask")
		w.Write([]byte(searchResultsPage))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	client, _ := newTestClient(t, srv.URL)
	books, err := client.Search(context.Background(), "стругацкие", 0)

	require.NoError(t, err)
	require.Equal(t, "стругацкие", gotQuery)
	require.Len(t, books, 2)
	require.Equal(t, "10", books[0].ID)
	require.Equal(t, "Автор Один", books[0].Author)
}

func TestSearchServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/booksearch", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	client, _ := newTestClient(t, srv.URL)
	_, err := client.Search(context.Background(), "x", 0)

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	require.Equal(t, http.StatusInternalServerError, reqErr.StatusCode)
}

func TestGetBookDetailsAuthGating(t *testing.T) {
	page := `<html><body>
	<h1 class="title">Книга (fb2)</h1>
	<select id="useropt"><option value="epub">epub</option></select>
	</body></html>`

	mux := http.NewServeMux()
	mux.HandleFunc("/b/5", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	client, _ := newTestClient(t, srv.URL)

	detail, err := client.GetBookDetails(context.Background(), "5")
	require.NoError(t, err)
	require.Equal(t, "Книга", detail.Title)
	require.Empty(t, detail.DownloadLinks, "без авторизации ссылок быть не должно")

	client.authenticated = true
	detail, err = client.GetBookDetails(context.Background(), "5")
	require.NoError(t, err)
	require.Len(t, detail.DownloadLinks, 1)
	require.Equal(t, models.FormatEPUB, detail.DownloadLinks[0].Format)
}

func TestGetBookDetailsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	client, _ := newTestClient(t, srv.URL)
	_, err := client.GetBookDetails(context.Background(), "404404")

	require.ErrorIs(t, err, ErrNotFound)
}

func TestDownload(t *testing.T) {
	content := []byte("fake epub bytes")

	mux := http.NewServeMux()
	mux.HandleFunc("/b/55/epub", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="kniga.epub"`)
		w.Write(content)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	client, paced := newTestClient(t, srv.URL)
	data, filename, err := client.Download(context.Background(), "55", models.FormatEPUB)

	require.NoError(t, err)
	require.Equal(t, content, data)
	require.Equal(t, "kniga.epub", filename)
	require.Equal(t, 1, *paced)
}

func TestDownloadNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	client, paced := newTestClient(t, srv.URL)
	_, _, err := client.Download(context.Background(), "55", models.FormatPDF)

	require.ErrorIs(t, err, ErrNotFound)
	// Пауза применяется даже когда скачивание не удалось.
	require.Equal(t, 1, *paced)
}

func TestDownloadFilenameFallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/b/7/fb2", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data"))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	client, _ := newTestClient(t, srv.URL)
	_, filename, err := client.Download(context.Background(), "7", models.FormatFB2)

	require.NoError(t, err)
	require.Equal(t, "7.fb2", filename)
}
