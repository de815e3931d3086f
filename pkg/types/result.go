package types

// ScoreBreakdown holds the individual signals fused by the reranker.
type ScoreBreakdown struct {
	Textual    float64
	Semantic   float64
	Functional float64
	Bias       float64
	Combined   float64
}

// CodeRegion is a localized block of code judged relevant to a query.
type CodeRegion struct {
	Name      string
	StartLine int // 1-based, inclusive
	EndLine   int
	Content   string
	Score     float64
}

// RetrievalResult is one ranked answer to a code query.
type RetrievalResult struct {
	FilePath string
	Content  string
	Rank     int // 1-based position in the result set
	Scores   ScoreBreakdown
	Regions  []CodeRegion
}

// Validate checks if the retrieval result is valid.
func (rr *RetrievalResult) Validate() error {
	if rr.FilePath == "" {
		return ErrMissingFilePath
	}
	if rr.Rank < 1 {
		return ErrInvalidRank
	}
	if rr.Scores.Combined < 0 || rr.Scores.Combined > 1 {
		return ErrInvalidRelevanceScore
	}
	return nil
}

// EnhancedRetrievalResult adds graph-derived context to a retrieval result.
type EnhancedRetrievalResult struct {
	RetrievalResult

	RelatedComponents []RelatedComponent
	ContextSummary    string
	DependencyChain   []string // result path followed by its top import targets
}
