// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package kv

import "github.com/cockroachdb/errors"

// ErrRetryable marks errors after which the same request, with the same
// paging state, may be retried.
var ErrRetryable = errors.New("retryable error")

var (
	// ErrUnavailable is returned when not enough replicas could serve a read.
	// It is retryable.
	ErrUnavailable = errors.New("not enough replicas available")
	// ErrReadTimeout is returned when a read did not complete before its
	// deadline. It is retryable.
	ErrReadTimeout = errors.New("read timeout")
)

// MarkRetryable marks err as retryable.
func MarkRetryable(err error) error {
	return errors.Mark(err, ErrRetryable)
}

// IsRetryable returns whether err, or any error it wraps, is retryable.
func IsRetryable(err error) bool {
	return errors.IsAny(err, ErrRetryable, ErrUnavailable, ErrReadTimeout)
}
