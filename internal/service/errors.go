package service

import "errors"

// Error kinds surfaced to the API layer. Handlers map these onto HTTP
// statuses; everything unmatched is a 500.
var (
	// ErrNotFound covers any tenant-scoped lookup miss.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState marks an operation attempted from a non-permitted
	// status (approving a count with pending items, shipping a received
	// transfer, transitioning a terminal reservation, ...).
	ErrInvalidState = errors.New("invalid state")

	// ErrNegativeStockRejected marks an exit movement that would drive the
	// balance below zero while the tenant policy forbids it. The movement
	// is rejected before anything is written.
	ErrNegativeStockRejected = errors.New("insufficient stock")

	// ErrInsufficientBatchStock marks a FIFO allocation request exceeding
	// the sum of available lots.
	ErrInsufficientBatchStock = errors.New("insufficient batch stock")

	// ErrIncompleteCount marks an approval attempt while items are still
	// pending.
	ErrIncompleteCount = errors.New("inventory count has pending items")
)
