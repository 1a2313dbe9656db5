package resilience

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestSingleFlight_CollapsesConcurrentCalls(t *testing.T) {
	var g SingleFlight
	var executions atomic.Int32

	release := make(chan struct{})
	started := make(chan struct{})

	var wg sync.WaitGroup
	var sharedCount atomic.Int32
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			val, err, shared := g.Do("https://example.org/scoreboard", func() (any, error) {
				executions.Add(1)
				close(started)
				<-release
				return "body", nil
			})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if val != "body" {
				t.Errorf("unexpected value: %v", val)
			}
			if shared {
				sharedCount.Add(1)
			}
		}()
	}

	<-started
	if !g.InFlight("https://example.org/scoreboard") {
		t.Fatal("expected key to be in flight")
	}
	close(release)
	wg.Wait()

	if got := executions.Load(); got != 1 {
		t.Fatalf("expected exactly one execution, got %d", got)
	}
	if got := sharedCount.Load(); got != 4 {
		t.Fatalf("expected 4 shared results, got %d", got)
	}
	if g.InFlight("https://example.org/scoreboard") {
		t.Fatal("expected key to be released")
	}
}

func TestSingleFlight_DistinctKeysRunIndependently(t *testing.T) {
	var g SingleFlight
	var executions atomic.Int32

	var wg sync.WaitGroup
	for _, key := range []string{"a", "b", "c"} {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			_, _, _ = g.Do(key, func() (any, error) {
				executions.Add(1)
				return key, nil
			})
		}(key)
	}
	wg.Wait()

	if got := executions.Load(); got != 3 {
		t.Fatalf("expected 3 executions, got %d", got)
	}
}
