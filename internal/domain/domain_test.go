package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThreadBelongsTo(t *testing.T) {
	assert.True(t, ThreadBelongsTo("Alice/1/11", "Alice"))
	assert.True(t, ThreadBelongsTo("Alice/anything", "Alice"))

	assert.False(t, ThreadBelongsTo("Alice", "Alice"), "a name without separator is not owned")
	assert.False(t, ThreadBelongsTo("Alicia/1/11", "Alice"))
	assert.False(t, ThreadBelongsTo("Alice/1/11", "Al"), "prefix of a different name must not match")
	assert.False(t, ThreadBelongsTo("Bob/1/11", "Alice"))
}

func TestSnowflakeRoundTrip(t *testing.T) {
	id, ok := ParseSnowflake("1399390214295785623")
	assert.True(t, ok)
	assert.Equal(t, int64(1399390214295785623), id)
	assert.Equal(t, "1399390214295785623", FormatSnowflake(id))

	_, ok = ParseSnowflake("junk")
	assert.False(t, ok)
	_, ok = ParseSnowflake("-5")
	assert.False(t, ok)
	_, ok = ParseSnowflake("")
	assert.False(t, ok)
}
