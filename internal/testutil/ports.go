package testutil

import (
	"fmt"
	"net"
	"sync"
	"testing"
)

var (
	portMutex = &sync.Mutex{}
	usedPorts = make(map[int]struct{})
)

// GetRandomListeningPort returns a localhost address with a free TCP port
// that no other test in this process has been handed.
func GetRandomListeningPort(t *testing.T) string {
	t.Helper()
	portMutex.Lock()
	defer portMutex.Unlock()

	for range 50 {
		listener, err := net.Listen("tcp", "localhost:0")
		if err != nil {
			t.Fatalf("Failed to get random port: %v", err)
		}
		p := listener.Addr().(*net.TCPAddr).Port
		if err := listener.Close(); err != nil {
			t.Fatalf("Failed to close listener: %v", err)
		}
		if _, ok := usedPorts[p]; ok {
			continue
		}
		usedPorts[p] = struct{}{}
		return fmt.Sprintf("localhost:%d", p)
	}
	t.Fatal("Failed to find an unused port")
	return ""
}
