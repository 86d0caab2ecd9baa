package service

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthenticationFailed — сайт отверг учетные данные, либо признаки
	// успешного входа не найдены в ответе.
	ErrAuthenticationFailed = errors.New("авторизация не удалась")

	// ErrNotFound — у сайта нет записи для запрошенного id/формата.
	ErrNotFound = errors.New("книга не найдена")
)

// RequestError — единый тип для сетевых сбоев: таймаут, обрыв соединения
// или неожиданный статус там, где операция требовала 2xx.
type RequestError struct {
	URL        string
	StatusCode int   // 0, если ответ так и не был получен
	Err        error // исходная причина, может быть nil
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("запрос %s не удался: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("запрос %s не удался: сервер вернул код %d", e.URL, e.StatusCode)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}
