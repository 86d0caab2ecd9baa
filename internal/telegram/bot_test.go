package telegram

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"kindlebot/internal/models"
)

func newTestBot() *Bot {
	return &Bot{
		sessions:      make(map[int64]*searchSession),
		awaitingEmail: make(map[int64]struct{}),
	}
}

func sampleBooks(n int) []models.BookSummary {
	books := make([]models.BookSummary, n)
	for i := range books {
		books[i] = models.BookSummary{
			ID:    fmt.Sprintf("%d", i+1),
			Title: fmt.Sprintf("Книга %d", i+1),
		}
	}
	return books
}

func TestBuildPage(t *testing.T) {
	b := newTestBot()
	b.storeSession(1, "стругацкие", sampleBooks(12))

	text, markup, ok := b.buildPage(1, 0)
	require.True(t, ok)

	// Заголовок показывает исходный запрос и позицию в результатах.
	require.Contains(t, text, "стругацкие")
	require.Contains(t, text, "12")
	require.Contains(t, text, "1/2")

	// 10 книг на странице плюс ряд навигации.
	require.Len(t, markup.InlineKeyboard, 11)
	require.Equal(t, "Книга 1", markup.InlineKeyboard[0][0].Text)
}

func TestBuildPageClampsOutOfRange(t *testing.T) {
	b := newTestBot()
	b.storeSession(1, "запрос", sampleBooks(12))

	text, _, ok := b.buildPage(1, 99)
	require.True(t, ok)
	require.Contains(t, text, "2/2")

	text, _, ok = b.buildPage(1, -5)
	require.True(t, ok)
	require.Contains(t, text, "1/2")
}

func TestBuildPageWithoutSession(t *testing.T) {
	b := newTestBot()

	_, _, ok := b.buildPage(1, 0)
	require.False(t, ok)
}

func TestFindBookInSession(t *testing.T) {
	b := newTestBot()
	b.storeSession(1, "запрос", sampleBooks(3))

	book, ok := b.findBookInSession(1, "2")
	require.True(t, ok)
	require.Equal(t, "Книга 2", book.Title)

	_, ok = b.findBookInSession(1, "99")
	require.False(t, ok)
}

func TestSplitBookFormat(t *testing.T) {
	id, format, ok := splitBookFormat("123:EPUB")
	require.True(t, ok)
	require.Equal(t, "123", id)
	require.Equal(t, models.FormatEPUB, format)

	_, _, ok = splitBookFormat("123")
	require.False(t, ok)
	_, _, ok = splitBookFormat(":EPUB")
	require.False(t, ok)
}
