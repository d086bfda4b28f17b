package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	old := GitCommit
	GitCommit = "abc123"
	t.Cleanup(func() { GitCommit = old })
	assert.Equal(t, "slide-annotator "+Version+" (commit abc123, built "+BuildTime+")", String())
}
