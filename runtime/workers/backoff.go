package workers

// Backoff holds the polling interval of a watcher, in time units.
// A failure doubles the interval up to the ceiling, a detection puts it
// back to the floor.
type Backoff struct {
	floor   int
	ceiling int
	current int
}

func NewBackoff(floor, ceiling int) *Backoff {
	if floor <= 0 {
		floor = 1
	}
	if ceiling < floor {
		ceiling = floor
	}
	return &Backoff{floor: floor, ceiling: ceiling, current: floor}
}

func (b *Backoff) Current() int {
	return b.current
}

// Fail doubles the interval, capped at the ceiling, and returns it.
func (b *Backoff) Fail() int {
	b.current = min(b.current*2, b.ceiling)
	return b.current
}

func (b *Backoff) Reset() int {
	b.current = b.floor
	return b.current
}
