package service

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"net/http/cookiejar"

	"kindlebot/internal/parser"
)

// Значение кнопки отправки у формы входа. Сайт ждет его дословно.
const loginOpMarker = "Войти"

func newCookieJar() http.CookieJar {
	// cookiejar.New с дефолтными опциями не возвращает ошибку.
	jar, _ := cookiejar.New(nil)
	return jar
}

// Login выполняет вход на сайт: страница входа → скрытые поля формы →
// POST учетных данных → эвристическая проверка успеха. Любой ожидаемый
// сбой возвращается типизированной ошибкой, паник и частичных состояний
// нет: либо сессия авторизована, либо нет.
func (c *FlibustaClient) Login(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return fmt.Errorf("%w: не указаны учетные данные", ErrAuthenticationFailed)
	}

	resp, err := c.get(ctx, "/user/login", nil)
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return &RequestError{URL: resp.Request.URL, StatusCode: resp.StatusCode()}
	}

	form, err := parser.ParseLoginForm(bytes.NewReader(resp.Body()))
	if err != nil {
		return fmt.Errorf("страница входа: %w", err)
	}

	formData := map[string]string{
		"name":          username,
		"pass":          password,
		"op":            loginOpMarker,
		"form_id":       "user_login",
		"form_build_id": form.FormBuildID,
	}
	if form.CSRFToken != "" {
		formData["csrf_token"] = form.CSRFToken
	}

	resp, err = c.postForm(ctx, "/user/login", formData)
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return &RequestError{URL: resp.Request.URL, StatusCode: resp.StatusCode()}
	}

	finalURL := resp.Request.URL
	if resp.RawResponse != nil && resp.RawResponse.Request != nil {
		finalURL = resp.RawResponse.Request.URL.String()
	}

	if !parser.LoginSucceeded(finalURL, string(resp.Body())) {
		return ErrAuthenticationFailed
	}

	c.authenticated = true
	c.fetchUserID(ctx)

	log.Printf("Успешная авторизация (user id: %s)", c.userID)
	return nil
}

// fetchUserID — best-effort: без id сессия полностью работоспособна.
func (c *FlibustaClient) fetchUserID(ctx context.Context) {
	resp, err := c.get(ctx, "/user", nil)
	if err != nil {
		log.Printf("Не удалось получить страницу профиля: %v", err)
		return
	}
	if resp.StatusCode() != http.StatusOK {
		return
	}
	c.userID = parser.ParseUserID(bytes.NewReader(resp.Body()))
}

// Logout завершает авторизованную сессию на сайте. Ошибки не критичны:
// cookie jar умирает вместе с сессией в любом случае.
func (c *FlibustaClient) Logout(ctx context.Context) {
	if !c.authenticated {
		return
	}
	if _, err := c.get(ctx, "/user/logout", nil); err != nil {
		log.Printf("Ошибка при выходе: %v", err)
	}
	c.authenticated = false
	c.userID = ""
}
