// Package testhelper silences the global logger for tests. Import it for
// side effects from _test.go files.
package testhelper

import (
	"os"
	"testing"

	"github.com/rs/zerolog"
)

func init() {
	if testing.Testing() && os.Getenv("COUNTSTEP_TEST_LOG") == "" {
		zerolog.SetGlobalLevel(zerolog.Disabled)
	}
}
