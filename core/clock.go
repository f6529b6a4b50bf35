package core

import "time"

// Clock supplies the reference time for nearest-epoch queries. Production
// code uses SystemClock; tests inject a fixed instant.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns a Clock backed by the wall clock.
func SystemClock() Clock { return systemClock{} }
