package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseYMD(t *testing.T) {
	got, err := ParseYMD("2025-03-09")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC), got)

	_, err = ParseYMD("03/09/2025")
	assert.Error(t, err)
}

func TestOptionalYMD(t *testing.T) {
	got, err := OptionalYMD("  ")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = OptionalYMD("2025-01-31")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 31, got.Day())

	_, err = OptionalYMD("2025-02-30")
	assert.Error(t, err)
}

func TestContentDisposition(t *testing.T) {
	assert.Equal(t, `attachment; filename="invoice-A1.pdf"`, ContentDisposition("invoice-A1.pdf"))
	assert.Equal(t, `attachment; filename="ab.pdf"`, ContentDisposition("a\"\nb.pdf"))
}
