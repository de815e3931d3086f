package types

import "time"

// ChangeType describes a caller-reported file change.
type ChangeType string

const (
	ChangeCreated  ChangeType = "created"
	ChangeModified ChangeType = "modified"
	ChangeDeleted  ChangeType = "deleted"
)

// ValidateChangeType checks if the change type is known.
func ValidateChangeType(ct ChangeType) bool {
	switch ct {
	case ChangeCreated, ChangeModified, ChangeDeleted:
		return true
	}
	return false
}

// ProcessingStats summarizes a repository-wide analysis run.
type ProcessingStats struct {
	FilesProcessed   int
	FilesSkipped     int
	FilesFailed      int
	TotalFiles       int
	BiasDetected     int // files whose bias score exceeded the configured threshold
	AverageBiasScore float64
	ProcessingTime   time.Duration
	ErrorMessages    []string
}

// UpdateResult reports the outcome of a single file update.
type UpdateResult struct {
	FilePath  string
	Change    ChangeType
	Success   bool
	Message   string
	BiasScore *float64 // set for created/modified updates that reached scoring
}

// BatchResult aggregates per-item update results. Results preserve the
// input order of the batch.
type BatchResult struct {
	Results   []UpdateResult
	Succeeded int
	Failed    int
}

// BiasIndicator flags one textual-dependence signal for a file.
type BiasIndicator struct {
	Type        string
	Severity    float64
	Description string
}

// FileBiasReport holds the bias analysis for one file.
type FileBiasReport struct {
	FilePath   string
	BiasScore  float64
	Indicators []BiasIndicator
}

// BiasReport is the repository- or file-scoped bias analysis.
type BiasReport struct {
	Files            []FileBiasReport
	AverageBiasScore float64
	HighBiasCount    int
	Threshold        float64
}

// SystemStats describes the current state of the system.
type SystemStats struct {
	RepositoryRoot  string
	Namespace       string
	Representations int
	Relationships   int
	CachedFiles     int
	OracleProvider  string
	LastAnalyzedAt  time.Time
}
