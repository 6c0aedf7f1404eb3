// Package testing puts the process into test mode before any test in an
// importing package runs. Import it for side effects only.
package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

// defaults apply only when the variable is not already set, so a developer
// can still point a run at PostgreSQL with STORAGE_DRIVER=postgres.
var defaults = map[string]string{
	"STORAGE_DRIVER": "memory",
	"LOG_FORMAT":     "json",
	"LOG_LEVEL":      "error",
}

var setup sync.Once

func enterTestMode() {
	setup.Do(func() {
		_ = os.Setenv("ODYSSEY_TEST_MODE", "1")
		for key, value := range defaults {
			if _, ok := os.LookupEnv(key); !ok {
				_ = os.Setenv(key, value)
			}
		}
	})
}

func init() { enterTestMode() }

// TestMain lets packages that only hold helpers reuse the same setup.
func TestMain(m *stdtesting.M) {
	enterTestMode()
	os.Exit(m.Run())
}
