// Package guard flips the runtime into test mode for any test that imports it.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("LOGIFY_TEST_MODE") == "" {
			_ = os.Setenv("LOGIFY_TEST_MODE", "1")
		}
	})
}
