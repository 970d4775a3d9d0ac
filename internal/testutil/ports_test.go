package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetRandomListeningPort(t *testing.T) {
	addr := GetRandomListeningPort(t)
	assert.Contains(t, addr, "localhost:")
	assert.Greater(t, len(addr), len("localhost:"))
}

func TestGetRandomListeningPortConcurrency(t *testing.T) {
	var wg sync.WaitGroup
	addrs := make(chan string, 20)

	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			addrs <- GetRandomListeningPort(t)
		}()
	}
	wg.Wait()
	close(addrs)

	seen := make(map[string]bool)
	for addr := range addrs {
		assert.False(t, seen[addr], "address %s was handed out twice", addr)
		seen[addr] = true
	}
}
