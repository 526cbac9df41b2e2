package fixture

// lazy holds a value created on first use. It is not safe for concurrent
// use; a fixture is driven from a single test goroutine.
type lazy[T any] struct {
	value T
	ready bool
}

// get returns the cached value, or calls create and caches its result.
// A failed create leaves the holder empty so the next call tries again.
func (l *lazy[T]) get(create func() (T, error)) (T, error) {
	if l.ready {
		return l.value, nil
	}
	v, err := create()
	if err != nil {
		var zero T
		return zero, err
	}
	l.value, l.ready = v, true
	return v, nil
}

func (l *lazy[T]) peek() (T, bool) {
	return l.value, l.ready
}

func (l *lazy[T]) reset() {
	var zero T
	l.value, l.ready = zero, false
}
