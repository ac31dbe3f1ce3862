//go:build !race

package main

import (
	"testing"
	"time"
)

// The producer writes video RAM while the compositor reads it. The race detector flags
// that, so this test only runs without it.

func TestRunHeadless(t *testing.T) {
	_, ctx := parse(t, "run", "--panel=headless", "--duration=200ms", "--scene=cursor", "--report=0")
	start := time.Now()
	if err := ctx.Run(); err != nil {
		t.Errorf("run error = %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("run did not stop after its duration")
	}
}
