// Package sendlock guards against concurrent or repeated delivery of the
// same book to the same recipient. It only suppresses in-flight duplicates;
// the historical "already sent" check against the database is a separate,
// independent safeguard.
package sendlock

import (
	"context"
	"log"
	"sync"
	"time"
)

// DefaultTTL — возраст, после которого блокировка считается зависшей
// (упавшая отправка) и снимается чисткой даже без явного Release.
const DefaultTTL = 5 * time.Minute

type key struct {
	recipient string
	bookID    string
}

// Guard — процессное хранилище блокировок отправки. Безопасен для
// конкурентного использования.
type Guard struct {
	mu    sync.Mutex
	locks map[key]time.Time

	ttl time.Duration
	now func() time.Time
}

// New создает Guard с указанным временем жизни блокировки.
// ttl <= 0 означает DefaultTTL.
func New(ttl time.Duration) *Guard {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Guard{
		locks: make(map[key]time.Time),
		ttl:   ttl,
		now:   time.Now,
	}
}

// TryAcquire берет блокировку для пары (получатель, книга). Возвращает
// false, если живая блокировка уже существует. Протухшая блокировка
// перезахватывается на месте, не дожидаясь периодической чистки.
func (g *Guard) TryAcquire(recipient, bookID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	k := key{recipient: recipient, bookID: bookID}
	if created, ok := g.locks[k]; ok && g.now().Sub(created) <= g.ttl {
		return false
	}
	g.locks[k] = g.now()
	return true
}

// Release снимает блокировку безусловно. Снятие отсутствующей блокировки —
// no-op, поэтому гонка с чисткой безопасна.
func (g *Guard) Release(recipient, bookID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.locks, key{recipient: recipient, bookID: bookID})
}

// Sweep удаляет все протухшие блокировки и возвращает их количество.
func (g *Guard) Sweep() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	removed := 0
	for k, created := range g.locks {
		if g.now().Sub(created) > g.ttl {
			delete(g.locks, k)
			removed++
		}
	}
	return removed
}

// Len возвращает число активных блокировок (включая протухшие, еще не
// снятые чисткой).
func (g *Guard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.locks)
}

// StartSweeper запускает периодическую чистку до отмены контекста.
func (g *Guard) StartSweeper(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = DefaultTTL
	}

	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := g.Sweep(); n > 0 {
					log.Printf("Снято зависших блокировок отправки: %d", n)
				}
			}
		}
	}()
}
