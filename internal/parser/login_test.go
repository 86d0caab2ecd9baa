package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const loginPage = `<html><body>
<form method="post" action="/user/login">
  <input type="text" name="name">
  <input type="password" name="pass">
  <input type="hidden" name="csrf_token" value="tok-123">
  <input type="hidden" name="form_build_id" value="form-abc">
</form>
</body></html>`

func TestParseLoginForm(t *testing.T) {
	form, err := ParseLoginForm(strings.NewReader(loginPage))
	require.NoError(t, err)
	require.Equal(t, "tok-123", form.CSRFToken)
	require.Equal(t, "form-abc", form.FormBuildID)
}

func TestParseLoginFormWithoutToken(t *testing.T) {
	page := `<html><body><form method="POST"><input name="name"></form></body></html>`

	form, err := ParseLoginForm(strings.NewReader(page))
	require.NoError(t, err)
	require.Empty(t, form.CSRFToken)
}

func TestParseLoginFormMissing(t *testing.T) {
	page := `<html><body><form method="get" action="/search"></form></body></html>`

	_, err := ParseLoginForm(strings.NewReader(page))
	require.ErrorIs(t, err, ErrLoginFormNotFound)
}

func TestLoginSucceeded(t *testing.T) {
	require.True(t, LoginSucceeded("https://flibusta.is/user", ""))
	require.True(t, LoginSucceeded("https://flibusta.is/", `<a href="/user/logout">Выход</a>`))
	require.False(t, LoginSucceeded("https://flibusta.is/node/1", "<p>Неверный пароль</p>"))
	// Остались на форме входа: URL содержит "/user", но это отказ.
	require.False(t, LoginSucceeded("https://flibusta.is/user/login", "<p>Неверный пароль</p>"))
}

func TestParseUserID(t *testing.T) {
	page := `<html><body>
	<a href="/user/login">Войти</a>
	<a href="/user/98765">Мой профиль</a>
	</body></html>`

	require.Equal(t, "98765", ParseUserID(strings.NewReader(page)))
	require.Empty(t, ParseUserID(strings.NewReader("<html><body></body></html>")))
}
