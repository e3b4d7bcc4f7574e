package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("http://files.test")

	_, err := m.PresignedURL(ctx, "notes/a.pdf", "")
	assert.Error(t, err)

	require.NoError(t, m.Save(ctx, "notes/a.pdf", strings.NewReader("%PDF-1.7"), "application/pdf"))
	assert.True(t, m.Has("notes/a.pdf"))
	assert.Equal(t, 1, m.Len())

	u, err := m.PresignedURL(ctx, "notes/a.pdf", "Unit 1.pdf")
	require.NoError(t, err)
	assert.Equal(t, "http://files.test/notes/a.pdf?filename=Unit+1.pdf", u)

	require.NoError(t, m.Delete(ctx, "notes/a.pdf"))
	assert.False(t, m.Has("notes/a.pdf"))
}
