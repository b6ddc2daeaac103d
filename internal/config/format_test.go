package config

import (
	"go/format"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructsAreFormatted(t *testing.T) {
	for _, name := range []string{"structs.go", "db.go"} {
		src, err := os.ReadFile(name)
		require.NoError(t, err)

		formatted, err := format.Source(src)
		require.NoError(t, err)

		assert.Equal(t, string(formatted), string(src), "%s is not gofmt formatted", name)
	}
}
