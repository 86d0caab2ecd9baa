package service

import "time"

// DefaultPaceDelay — минимальная пауза между запросами к сайту, чтобы не
// провоцировать анти-скрейпинг защиту.
const DefaultPaceDelay = time.Second

// pacer enforces a fixed delay after every network round trip, failed
// calls included.
type pacer struct {
	delay time.Duration
	sleep func(time.Duration)
}

func newPacer(delay time.Duration) *pacer {
	if delay <= 0 {
		delay = DefaultPaceDelay
	}
	return &pacer{delay: delay, sleep: time.Sleep}
}

// Pace blocks for the configured delay.
func (p *pacer) Pace() {
	p.sleep(p.delay)
}
