// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package metric

// ReadCapacityBlockSize is the number of bytes covered by one read unit.
const ReadCapacityBlockSize = 4096

// ReadCapacityCounter accumulates the bytes read by one request and converts
// them to read capacity units. A quorum read of up to ReadCapacityBlockSize
// bytes costs one unit; a non-quorum read costs half of that. Every request
// costs at least one block.
type ReadCapacityCounter struct {
	Quorum bool
	bytes  uint64
}

// Add accounts for n more bytes.
func (c *ReadCapacityCounter) Add(n int64) {
	if n > 0 {
		c.bytes += uint64(n)
	}
}

// Bytes returns the number of bytes accounted so far.
func (c *ReadCapacityCounter) Bytes() uint64 {
	return c.bytes
}

// internalUnits returns the cost in half units.
func (c *ReadCapacityCounter) internalUnits() uint64 {
	blocks := (c.bytes + ReadCapacityBlockSize - 1) / ReadCapacityBlockSize
	if blocks == 0 {
		blocks = 1
	}
	if c.Quorum {
		return 2 * blocks
	}
	return blocks
}

// Units returns the consumed read capacity units.
func (c *ReadCapacityCounter) Units() float64 {
	return float64(c.internalUnits()) * 0.5
}
