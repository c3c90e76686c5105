package api

import (
	"fmt"
	"sync"
	"testing"
)

func TestRateLimiter_AllowsBurst(t *testing.T) {
	rl := NewRateLimiter(5)

	// Burst is twice the per-second rate
	for i := 0; i < 10; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("request %d denied within burst", i)
		}
	}

	if rl.Allow("1.2.3.4") {
		t.Error("request beyond burst should be denied")
	}
}

func TestRateLimiter_ClientsAreIndependent(t *testing.T) {
	rl := NewRateLimiter(1)

	for i := 0; i < 2; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("first client denied within burst")
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Error("first client should be exhausted")
	}

	if !rl.Allow("5.6.7.8") {
		t.Error("second client should have its own budget")
	}
}

func TestRateLimiter_ConcurrentClients(t *testing.T) {
	rl := NewRateLimiter(100)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			client := fmt.Sprintf("10.0.0.%d", n%5)
			for j := 0; j < 20; j++ {
				rl.Allow(client)
			}
		}(i)
	}
	wg.Wait()
}
