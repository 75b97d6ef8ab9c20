package app

import (
	"bytes"
	"os"
	"sync"
	"testing"

	"github.com/vk/rendergraph/internal/engine"
	"github.com/vk/rendergraph/internal/hclgraph"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// SetupAppTest creates a new app instance backed by the HCL loader for
// system testing. Set RG_TEST_LOGS=true to dump the captured output.
func SetupAppTest(t *testing.T, cfg *Config, modules ...engine.Module) (*App, *SafeBuffer) {
	t.Helper()

	logBuffer := &SafeBuffer{}
	cfg.LogLevel = "debug"
	testApp := NewApp(logBuffer, cfg, hclgraph.NewLoader(), modules...)

	t.Cleanup(func() {
		if os.Getenv("RG_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, logBuffer
}
