package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidRequest signals a malformed retrieval or resolution request.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrCatalogUnavailable signals that the mod catalog could not be reached.
	// Fatal for resolution, local to a single query for retrieval.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	// ErrVectorDimMismatch signals an embedding of unexpected dimensionality.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)
