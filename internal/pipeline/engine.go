package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/mdevan/debias-mcp/internal/augment"
	"github.com/mdevan/debias-mcp/internal/bias"
	"github.com/mdevan/debias-mcp/internal/discovery"
	"github.com/mdevan/debias-mcp/internal/extractor"
	"github.com/mdevan/debias-mcp/internal/graphstore"
	"github.com/mdevan/debias-mcp/internal/oracle"
	"github.com/mdevan/debias-mcp/internal/reranker"
	"github.com/mdevan/debias-mcp/pkg/types"
)

// DefaultBiasThreshold marks a file as high-bias in reports and stats.
const DefaultBiasThreshold = 0.6

// ErrPathOutsideRoot rejects paths that escape the repository root.
var ErrPathOutsideRoot = errors.New("path is outside repository root")

// candidateMultiplier widens the store's candidate pool before reranking.
const candidateMultiplier = 3

// Config tunes the analysis engine.
type Config struct {
	Workers       int     // concurrent file workers (default: runtime.NumCPU())
	BiasThreshold float64 // default: DefaultBiasThreshold
	IncludeTests  bool    // analyze test files too
}

// FileChange is one caller-reported change in a batch update.
type FileChange struct {
	FilePath string
	Change   types.ChangeType
}

// Engine coordinates the full analysis pipeline:
// extract -> score bias -> augment -> store, plus query-time reranking.
type Engine struct {
	root      string
	registry  *extractor.Registry
	detector  *bias.Detector
	augmenter *augment.Augmenter
	store     graphstore.Store
	reranker  *reranker.Reranker
	oracle    oracle.Oracle

	workers       int
	biasThreshold float64
	includeTests  bool

	// cache holds recently processed representations keyed by path,
	// saving a store round-trip on the unchanged-content check.
	cache *lru.Cache[string, *types.CodeRepresentation]

	mu           sync.RWMutex
	lastAnalyzed time.Time
}

const repCacheSize = 256

// New creates an Engine rooted at the given repository directory.
func New(root string, store graphstore.Store, orc oracle.Oracle, cfg *Config) (*Engine, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %s: %w", root, err)
	}
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if orc == nil {
		return nil, fmt.Errorf("oracle is required")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	threshold := cfg.BiasThreshold
	if threshold <= 0 {
		threshold = DefaultBiasThreshold
	}

	cache, err := lru.New[string, *types.CodeRepresentation](repCacheSize)
	if err != nil {
		return nil, err
	}

	return &Engine{
		root:          absRoot,
		cache:         cache,
		registry:      extractor.NewRegistry(),
		detector:      bias.NewDetector(),
		augmenter:     augment.New(orc, orc),
		store:         store,
		reranker:      reranker.New(store),
		oracle:        orc,
		workers:       workers,
		biasThreshold: threshold,
		includeTests:  cfg.IncludeTests,
	}, nil
}

// Root returns the engine's repository root.
func (e *Engine) Root() string {
	return e.root
}

// ProcessFile runs the full pipeline for one file and persists the result.
func (e *Engine) ProcessFile(ctx context.Context, path string) (*types.CodeRepresentation, error) {
	abs, err := e.validatePath(path)
	if err != nil {
		return nil, err
	}
	content, err := discovery.ReadFile(abs)
	if err != nil {
		return nil, err
	}
	return e.processContent(ctx, abs, content)
}

// processContent builds, scores, augments, and stores a representation.
func (e *Engine) processContent(ctx context.Context, path, content string) (*types.CodeRepresentation, error) {
	res := e.registry.Extract(content, path, "")

	rels := res.Relationships
	rep := &types.CodeRepresentation{
		FilePath:      path,
		Content:       content,
		Textual:       res.Textual,
		Structural:    res.Structural,
		Relationships: &rels,
		LastModified:  time.Now(),
	}

	rep.BiasScore = e.detector.DetectBias(rep)
	rep = e.augmenter.Augment(ctx, rep)

	if err := e.store.UpsertRepresentation(ctx, rep); err != nil {
		return nil, fmt.Errorf("failed to store %s: %w", path, err)
	}
	if err := e.storeEdges(ctx, rep); err != nil {
		return nil, fmt.Errorf("failed to store relationships for %s: %w", path, err)
	}
	e.cache.Add(path, rep)
	return rep, nil
}

// storeEdges replaces the file's outgoing edges with edges derived from its
// current relationship set.
func (e *Engine) storeEdges(ctx context.Context, rep *types.CodeRepresentation) error {
	if err := e.store.DeleteEdgesFrom(ctx, rep.FilePath); err != nil {
		return err
	}
	if rep.Relationships == nil {
		return nil
	}
	rs := rep.Relationships

	for _, imp := range rs.Imports {
		details, _ := json.Marshal(map[string]any{"symbols": imp.Symbols, "import_type": imp.ImportType})
		if err := e.store.StoreRelationship(ctx, graphstore.Edge{
			From: rep.FilePath, To: imp.To, Type: types.RelationImports,
			LineNumber: imp.LineNumber, Details: string(details),
		}); err != nil {
			return err
		}
	}
	for _, exp := range rs.Exports {
		if err := e.store.StoreRelationship(ctx, graphstore.Edge{
			From: rep.FilePath, To: exp.Symbol, Type: types.RelationExports,
			LineNumber: exp.LineNumber,
		}); err != nil {
			return err
		}
	}
	for _, call := range rs.Calls {
		details, _ := json.Marshal(map[string]any{"object": call.Object, "context": call.Context, "call_type": call.CallType})
		if err := e.store.StoreRelationship(ctx, graphstore.Edge{
			From: rep.FilePath, To: call.To, Type: types.RelationCalls,
			LineNumber: call.LineNumber, Details: string(details),
		}); err != nil {
			return err
		}
	}
	for _, inh := range rs.Inheritance {
		if err := e.store.StoreRelationship(ctx, graphstore.Edge{
			From: rep.FilePath, To: inh.To, Type: inheritanceRelation(inh.Type),
			LineNumber: inh.LineNumber,
		}); err != nil {
			return err
		}
	}
	for _, dep := range rs.Dependencies {
		details, _ := json.Marshal(map[string]any{"usage": dep.Usage, "dependency_type": dep.DependencyType})
		if err := e.store.StoreRelationship(ctx, graphstore.Edge{
			From: rep.FilePath, To: dep.To, Type: types.RelationDependsOn,
			Details: string(details),
		}); err != nil {
			return err
		}
	}
	return nil
}

func inheritanceRelation(t types.InheritanceType) types.RelationType {
	switch t {
	case types.InheritImplements:
		return types.RelationImplements
	case types.InheritMixin:
		return types.RelationMixin
	default:
		return types.RelationExtends
	}
}

// AnalyzeRepository discovers and processes every source file under the
// root concurrently. Files whose stored content is unchanged are skipped.
func (e *Engine) AnalyzeRepository(ctx context.Context) (*types.ProcessingStats, error) {
	start := time.Now()

	files, err := discovery.ListSourceFiles(e.root, discovery.Options{IncludeTest: e.includeTests})
	if err != nil {
		return nil, fmt.Errorf("failed to discover files: %w", err)
	}

	var (
		processed int32
		skipped   int32
		failed    int32
		biased    int32
	)
	var biasSumBits atomic.Uint64

	semaphore := make(chan struct{}, e.workers)
	var mu sync.Mutex
	var errMessages []string

	g, gctx := errgroup.WithContext(ctx)
	for _, file := range files {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			content, rerr := discovery.ReadFile(file)
			if rerr != nil {
				atomic.AddInt32(&failed, 1)
				mu.Lock()
				errMessages = append(errMessages, fmt.Sprintf("%s: %v", file, rerr))
				mu.Unlock()
				return nil
			}

			if e.unchanged(gctx, file, content) {
				atomic.AddInt32(&skipped, 1)
				return nil
			}

			rep, perr := e.processContent(gctx, file, content)
			if perr != nil {
				atomic.AddInt32(&failed, 1)
				mu.Lock()
				errMessages = append(errMessages, fmt.Sprintf("%s: %v", file, perr))
				mu.Unlock()
				return nil
			}

			atomic.AddInt32(&processed, 1)
			if rep.BiasScore > e.biasThreshold {
				atomic.AddInt32(&biased, 1)
			}
			addFloat(&biasSumBits, rep.BiasScore)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := &types.ProcessingStats{
		FilesProcessed: int(processed),
		FilesSkipped:   int(skipped),
		FilesFailed:    int(failed),
		TotalFiles:     len(files),
		BiasDetected:   int(biased),
		ProcessingTime: time.Since(start),
		ErrorMessages:  errMessages,
	}
	if processed > 0 {
		stats.AverageBiasScore = readFloat(&biasSumBits) / float64(processed)
	}

	e.mu.Lock()
	e.lastAnalyzed = time.Now()
	e.mu.Unlock()

	return stats, nil
}

// UpdateFile applies one reported change. Invalid paths and unknown change
// types are rejected before any stored state is touched.
func (e *Engine) UpdateFile(ctx context.Context, path string, change types.ChangeType) types.UpdateResult {
	result := types.UpdateResult{FilePath: path, Change: change}

	if !types.ValidateChangeType(change) {
		result.Message = fmt.Sprintf("unknown change type: %s", change)
		return result
	}
	abs, err := e.validatePath(path)
	if err != nil {
		result.Message = err.Error()
		return result
	}
	result.FilePath = abs

	switch change {
	case types.ChangeDeleted:
		if err := e.store.DeleteRepresentation(ctx, abs); err != nil {
			result.Message = err.Error()
			return result
		}
		e.cache.Remove(abs)
		result.Success = true
		result.Message = "representation removed"
	default: // created, modified
		rep, err := e.ProcessFile(ctx, abs)
		if err != nil {
			result.Message = err.Error()
			return result
		}
		score := rep.BiasScore
		result.BiasScore = &score
		result.Success = true
		result.Message = "representation updated"
	}
	return result
}

// UpdateFiles applies a batch of changes, preserving input order in the
// returned results. One failing item never aborts the batch.
func (e *Engine) UpdateFiles(ctx context.Context, changes []FileChange) *types.BatchResult {
	batch := &types.BatchResult{Results: make([]types.UpdateResult, 0, len(changes))}
	for _, c := range changes {
		res := e.UpdateFile(ctx, c.FilePath, c.Change)
		batch.Results = append(batch.Results, res)
		if res.Success {
			batch.Succeeded++
		} else {
			batch.Failed++
		}
	}
	return batch
}

// QueryCode retrieves and reranks candidate files for a natural-language
// query.
func (e *Engine) QueryCode(ctx context.Context, query string, topK int) ([]types.RetrievalResult, error) {
	candidates, err := e.searchCandidates(ctx, query, topK)
	if err != nil {
		return nil, err
	}
	return e.reranker.Rerank(candidates, query, topK), nil
}

// QueryCodeWithContext is QueryCode plus graph context on every result.
func (e *Engine) QueryCodeWithContext(ctx context.Context, query string, topK int) ([]types.EnhancedRetrievalResult, error) {
	candidates, err := e.searchCandidates(ctx, query, topK)
	if err != nil {
		return nil, err
	}
	return e.reranker.RerankWithContext(ctx, candidates, query, topK), nil
}

func (e *Engine) searchCandidates(ctx context.Context, query string, topK int) ([]*types.CodeRepresentation, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}
	if topK <= 0 {
		topK = 10
	}
	candidates, err := e.store.Search(ctx, query, topK*candidateMultiplier)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	return candidates, nil
}

// RelatedComponents returns graph neighbors of a file within traversal
// bounds.
func (e *Engine) RelatedComponents(ctx context.Context, path string, opts graphstore.TraversalOptions) ([]types.RelatedComponent, error) {
	abs, err := e.validatePath(path)
	if err != nil {
		return nil, err
	}
	return e.store.RelatedComponents(ctx, abs, opts)
}

// RelationshipGraph returns the traversed subgraph rooted at a file.
func (e *Engine) RelationshipGraph(ctx context.Context, path string, relTypes []types.RelationType, maxDepth int) (*types.GraphTraversalResult, error) {
	abs, err := e.validatePath(path)
	if err != nil {
		return nil, err
	}
	return e.store.Traverse(ctx, abs, relTypes, maxDepth)
}

// BiasAnalysis reports bias scores and indicators, either for a single file
// or for every stored file when path is empty.
func (e *Engine) BiasAnalysis(ctx context.Context, path string) (*types.BiasReport, error) {
	var paths []string
	if path != "" {
		abs, err := e.validatePath(path)
		if err != nil {
			return nil, err
		}
		paths = []string{abs}
	} else {
		stored, err := e.store.ListPaths(ctx)
		if err != nil {
			return nil, err
		}
		paths = stored
	}

	report := &types.BiasReport{Threshold: e.biasThreshold}
	var sum float64
	for _, p := range paths {
		rep, err := e.store.GetRepresentation(ctx, p)
		if err != nil {
			if path != "" {
				return nil, err
			}
			continue
		}
		file := types.FileBiasReport{
			FilePath:   p,
			BiasScore:  rep.BiasScore,
			Indicators: e.detector.Indicators(rep),
		}
		report.Files = append(report.Files, file)
		sum += rep.BiasScore
		if rep.BiasScore > e.biasThreshold {
			report.HighBiasCount++
		}
	}
	if len(report.Files) > 0 {
		report.AverageBiasScore = sum / float64(len(report.Files))
	}
	sort.Slice(report.Files, func(i, j int) bool {
		return report.Files[i].BiasScore > report.Files[j].BiasScore
	})
	return report, nil
}

// Stats reports the current state of the engine and its store.
func (e *Engine) Stats(ctx context.Context) (*types.SystemStats, error) {
	reps, rels, err := e.store.Counts(ctx)
	if err != nil {
		return nil, err
	}

	e.mu.RLock()
	last := e.lastAnalyzed
	e.mu.RUnlock()

	provider := ""
	if e.oracle != nil {
		provider = e.oracle.Provider()
	}
	stats := &types.SystemStats{
		RepositoryRoot:  e.root,
		Representations: reps,
		Relationships:   rels,
		CachedFiles:     e.cache.Len(),
		OracleProvider:  provider,
		LastAnalyzedAt:  last,
	}
	if ns, ok := e.store.(interface{ Namespace() string }); ok {
		stats.Namespace = ns.Namespace()
	}
	return stats, nil
}

// unchanged reports whether the stored content for a file matches the
// current content, checking the in-memory cache before the store.
func (e *Engine) unchanged(ctx context.Context, path, content string) bool {
	if rep, ok := e.cache.Get(path); ok && rep.Content == content {
		return true
	}
	rep, err := e.store.GetRepresentation(ctx, path)
	return err == nil && rep.Content == content
}

// validatePath resolves a path and rejects anything outside the repository
// root before any read or mutation happens.
func (e *Engine) validatePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("file path is required")
	}
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(e.root, abs)
	}
	abs = filepath.Clean(abs)
	if abs != e.root && !strings.HasPrefix(abs, e.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s (root %s)", ErrPathOutsideRoot, path, e.root)
	}
	return abs, nil
}

// addFloat accumulates a float64 into an atomic bit store.
func addFloat(bits *atomic.Uint64, v float64) {
	for {
		old := bits.Load()
		next := floatBits(floatFromBits(old) + v)
		if bits.CompareAndSwap(old, next) {
			return
		}
	}
}

func readFloat(bits *atomic.Uint64) float64 {
	return floatFromBits(bits.Load())
}

func floatBits(v float64) uint64     { return math.Float64bits(v) }
func floatFromBits(b uint64) float64 { return math.Float64frombits(b) }
