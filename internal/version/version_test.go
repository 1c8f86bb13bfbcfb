package version_test

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pinlock-dev/pinlock/internal/version"
)

func TestFull(t *testing.T) {
	t.Parallel()

	full := version.Full()
	assert.Contains(t, full, version.Version)
	assert.Contains(t, full, version.Commit)
	assert.Contains(t, full, runtime.Version())
	assert.Contains(t, full, runtime.GOOS+"/"+runtime.GOARCH)
}
