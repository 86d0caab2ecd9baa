package parser

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrLoginFormNotFound means the login page parsed, but the POST form the
// handshake depends on is gone. This is a hard failure: without the form
// there is nothing to submit.
var ErrLoginFormNotFound = errors.New("форма входа не найдена")

var userHrefRe = regexp.MustCompile(`/user/(\d+)`)

// LoginForm holds the hidden fields extracted from the login page that have
// to be echoed back with the credentials.
type LoginForm struct {
	// CSRFToken is empty when the site didn't render an anti-forgery field.
	CSRFToken string

	// FormBuildID is the Drupal form instance marker, may be empty.
	FormBuildID string
}

// ParseLoginForm locates the POST form on the login page and pulls out its
// hidden fields.
func ParseLoginForm(body io.Reader) (LoginForm, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return LoginForm{}, fmt.Errorf("ошибка чтения HTML: %w", err)
	}

	var form *goquery.Selection
	doc.Find("form").EachWithBreak(func(_ int, f *goquery.Selection) bool {
		if strings.EqualFold(f.AttrOr("method", ""), "post") {
			form = f
			return false
		}
		return true
	})
	if form == nil {
		return LoginForm{}, ErrLoginFormNotFound
	}

	return LoginForm{
		CSRFToken:   form.Find("input[name='csrf_token']").AttrOr("value", ""),
		FormBuildID: form.Find("input[name='form_build_id']").AttrOr("value", ""),
	}, nil
}

// LoginSucceeded is the best-effort success detector for the login POST:
// either we landed in the user area, or the page offers a logout link.
// The site gives no structured signal, so this can silently break if the
// markup changes.
func LoginSucceeded(finalURL string, body string) bool {
	if strings.Contains(strings.ToLower(body), "logout") {
		return true
	}

	u := strings.ToLower(finalURL)
	if strings.Contains(u, "/user/login") {
		// Остались на форме входа — это отказ, хотя URL и содержит "/user".
		return false
	}
	return strings.Contains(u, "/user")
}

// ParseUserID extracts the numeric account id from the profile page.
// Empty result is fine: the id is informational only.
func ParseUserID(body io.Reader) string {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return ""
	}

	var userID string
	doc.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		m := userHrefRe.FindStringSubmatch(href)
		if m == nil {
			return true
		}
		userID = m[1]
		return false
	})
	return userID
}
