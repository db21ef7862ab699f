// Package globaltime is the process-wide clock. Scoring and freshness math
// read it instead of time.Now so tests can pin the moment.
package globaltime

import (
	"sync"
	"time"
)

var (
	mu      sync.RWMutex
	nowFunc = time.Now
)

func Now() time.Time {
	mu.RLock()
	defer mu.RUnlock()
	return nowFunc()
}

// UTC is the timestamp used for scoring windows and persisted rows.
func UTC() time.Time {
	return Now().UTC()
}

// SetMockTime pins the clock until ResetTime. Tests using it must not run in
// parallel.
func SetMockTime(t time.Time) {
	mu.Lock()
	defer mu.Unlock()
	nowFunc = func() time.Time { return t }
}

func ResetTime() {
	mu.Lock()
	defer mu.Unlock()
	nowFunc = time.Now
}
