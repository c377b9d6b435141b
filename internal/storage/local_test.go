package storage

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_UploadAndResolve(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	rel, err := s.UploadFromBytes([]byte("slip"), "Deposit.PDF", "deposit_slips")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rel, "deposit_slips/"))
	assert.True(t, strings.HasSuffix(rel, ".pdf"))
	assert.True(t, s.Exists(rel))

	full, err := s.SafeFullPath(rel)
	require.NoError(t, err)
	data, err := os.ReadFile(full)
	require.NoError(t, err)
	assert.Equal(t, "slip", string(data))

	require.NoError(t, s.Delete(rel))
	assert.False(t, s.Exists(rel))
}

func TestLocalStorage_SafeFullPathRejectsTraversal(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = s.SafeFullPath("../../etc/passwd")
	assert.ErrorIs(t, err, ErrOutsideStorage)

	_, err = s.SafeFullPath("..")
	assert.ErrorIs(t, err, ErrOutsideStorage)
}

func TestIsValidContentType(t *testing.T) {
	assert.True(t, IsValidContentType("image/png"))
	assert.True(t, IsValidContentType("application/pdf"))
	assert.False(t, IsValidContentType("text/html"))
}
