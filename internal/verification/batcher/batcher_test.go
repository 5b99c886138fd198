package batcher

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vatcheck/internal/verification/domain"
)

func records(n int) []domain.Record {
	out := make([]domain.Record, n)
	for i := range out {
		out[i] = domain.Record{Identifier: fmt.Sprintf("CZ%d", i)}
	}
	return out
}

func TestSplit(t *testing.T) {
	t.Run("five records in pairs", func(t *testing.T) {
		in := records(5)
		batches, err := Split(in, 2)
		require.NoError(t, err)
		require.Len(t, batches, 3)

		sizes := []int{batches[0].Size(), batches[1].Size(), batches[2].Size()}
		assert.Equal(t, []int{2, 2, 1}, sizes)

		var flat []domain.Record
		for i, b := range batches {
			assert.Equal(t, i, b.Index)
			flat = append(flat, b.Records...)
		}
		assert.Equal(t, in, flat)
	})

	t.Run("batch size one", func(t *testing.T) {
		batches, err := Split(records(3), 1)
		require.NoError(t, err)
		assert.Len(t, batches, 3)
	})

	t.Run("empty input", func(t *testing.T) {
		batches, err := Split(nil, 2)
		require.NoError(t, err)
		assert.Empty(t, batches)
	})

	t.Run("invalid size", func(t *testing.T) {
		_, err := Split(records(2), 0)
		assert.Error(t, err)
	})

	t.Run("batches do not alias each other", func(t *testing.T) {
		batches, err := Split(records(4), 2)
		require.NoError(t, err)
		first := batches[0].Records
		_ = append(first, domain.Record{Identifier: "CZX"})
		assert.Equal(t, "CZ2", batches[1].Records[0].Identifier)
	})
}

func TestCount(t *testing.T) {
	assert.Equal(t, 3, Count(5, 2))
	assert.Equal(t, 5, Count(5, 1))
	assert.Equal(t, 0, Count(0, 2))
	assert.Equal(t, 0, Count(3, 0))
}
