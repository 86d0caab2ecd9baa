package models

// BookSummary — одна строка результатов поиска.
// ID — числовой идентификатор книги на сайте, ключ для всех последующих запросов.
type BookSummary struct {
	ID        string
	Title     string
	URL       string
	Author    string
	AuthorID  string
	AuthorURL string

	// CoAuthors содержит всех авторов строки (первый — основной),
	// если сайт показал больше одного.
	CoAuthors []string
}
