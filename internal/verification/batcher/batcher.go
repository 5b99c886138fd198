// Package batcher partitions records into fixed-size lookup groups.
package batcher

import (
	"fmt"

	"vatcheck/internal/verification/domain"
)

// Split partitions records into ceil(len/size) batches of at most size
// records, preserving order. Batch indexes start at 0.
func Split(records []domain.Record, size int) ([]domain.Batch, error) {
	if size < 1 {
		return nil, fmt.Errorf("batch size must be positive, got %d", size)
	}

	batches := make([]domain.Batch, 0, Count(len(records), size))
	for start := 0; start < len(records); start += size {
		end := min(start+size, len(records))
		batches = append(batches, domain.Batch{
			Index:   len(batches),
			Records: records[start:end:end],
		})
	}
	return batches, nil
}

// Count returns the number of batches Split produces for n records.
func Count(n, size int) int {
	if size < 1 || n <= 0 {
		return 0
	}
	return (n + size - 1) / size
}
