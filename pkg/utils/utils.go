package utils

import (
	"log"
	"runtime/debug"
	"time"
)

// GoSafe runs fn in a goroutine and recovers from panics so a single
// misbehaving handler cannot take down the process.
func GoSafe(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("recovered from panic: %v\n%s", r, debug.Stack())
			}
		}()
		fn()
	}()
}

// MustLoadLocation loads a timezone location and panics on failure.
// Intended for process startup only.
func MustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Fatalf("failed to load location %s: %v", name, err)
	}
	return loc
}
