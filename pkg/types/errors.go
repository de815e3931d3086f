package types

import "errors"

// Domain errors for type validation
var (
	ErrInvalidRank           = errors.New("rank must be >= 1")
	ErrInvalidRelevanceScore = errors.New("relevance score must be between 0 and 1")
	ErrInvalidBiasScore      = errors.New("bias score must be between 0 and 1")
	ErrMissingFilePath       = errors.New("file path is required")
)
