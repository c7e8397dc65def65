package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatch(t *testing.T) {
	t.Parallel()

	var lines []string
	err := Batch(strings.NewReader("clear\n\n  temp=40  \ntext=hi"), func(line string) { lines = append(lines, line) })
	require.NoError(t, err)
	assert.Equal(t, []string{"clear", "temp=40", "text=hi"}, lines)
}
