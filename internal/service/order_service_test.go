package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUniqueIDs(t *testing.T) {
	ids := []int64{1, 2, 1, 3, 2}

	assert.Equal(t, []int64{1, 2, 3}, uniqueIDs(ids))
	assert.Empty(t, uniqueIDs(nil))

	// The input slice is left untouched.
	assert.Equal(t, []int64{1, 2, 1, 3, 2}, ids)
}

func TestMarkPaidAssignsDisplayNumber(t *testing.T) {
	// Full flow needs a database-backed store.
	t.Skip("Integration test - requires database")
}
