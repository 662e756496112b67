package realtime

import "time"

// expBackoff doubles the delay between reconnect attempts. The
// ceiling bounds cumulative wait, not attempt count: once the total
// waited reaches it, the delay stays at the last capped value.
type expBackoff struct {
	base    time.Duration
	ceiling time.Duration

	cur     time.Duration
	elapsed time.Duration
}

func newExpBackoff(base, ceiling time.Duration) *expBackoff {
	return &expBackoff{base: base, ceiling: ceiling}
}

func (b *expBackoff) Next() time.Duration {
	switch {
	case b.cur == 0:
		b.cur = b.base
	case b.elapsed < b.ceiling:
		b.cur *= 2
	}
	if rem := b.ceiling - b.elapsed; rem > 0 && b.cur > rem {
		b.cur = rem
	}
	b.elapsed += b.cur
	return b.cur
}

func (b *expBackoff) Reset() {
	b.cur = 0
	b.elapsed = 0
}
