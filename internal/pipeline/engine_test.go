package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdevan/debias-mcp/internal/graphstore"
	"github.com/mdevan/debias-mcp/internal/oracle"
	"github.com/mdevan/debias-mcp/pkg/types"
)

func newTestEngine(t *testing.T) (*Engine, string) {
	t.Helper()

	orc, err := oracle.New(oracle.Config{Provider: oracle.ProviderLocal, CacheSize: 100})
	require.NoError(t, err)

	store, err := graphstore.NewSQLiteStore(":memory:", "test", orc)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	root := t.TempDir()
	engine, err := New(root, store, orc, &Config{Workers: 2})
	require.NoError(t, err)
	return engine, root
}

func writeFile(t *testing.T, root, name, content string) string {
	t.Helper()
	path := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestProcessFileStoresRepresentation(t *testing.T) {
	engine, root := newTestEngine(t)
	ctx := context.Background()

	path := writeFile(t, root, "search.js", `import { index } from './index';

export function search(query) {
  if (query) {
    return index.find(query);
  }
  return [];
}
`)

	rep, err := engine.ProcessFile(ctx, path)
	require.NoError(t, err)

	assert.Equal(t, path, rep.FilePath)
	assert.GreaterOrEqual(t, rep.BiasScore, 0.0)
	assert.LessOrEqual(t, rep.BiasScore, 1.0)
	assert.NotEmpty(t, rep.AugmentedEmbedding)
	assert.NotEmpty(t, rep.Semantic.FunctionalSignature)

	stored, err := engine.store.GetRepresentation(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, rep.Content, stored.Content)

	edges, err := engine.store.EdgesFrom(ctx, path)
	require.NoError(t, err)
	assert.NotEmpty(t, edges)
}

func TestProcessFileRelativePath(t *testing.T) {
	engine, root := newTestEngine(t)

	writeFile(t, root, "a.js", "export function a() {}")

	rep, err := engine.ProcessFile(context.Background(), "a.js")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "a.js"), rep.FilePath)
}

func TestProcessFileOutsideRootRejected(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.ProcessFile(context.Background(), "/etc/passwd")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPathOutsideRoot)
	assert.Contains(t, err.Error(), "outside repository root")
}

func TestProcessFileTraversalRejected(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.ProcessFile(context.Background(), "../../../etc/passwd")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside repository root")
}

func TestAnalyzeRepository(t *testing.T) {
	engine, root := newTestEngine(t)
	ctx := context.Background()

	writeFile(t, root, "a.js", "export function a() { return 1; }")
	writeFile(t, root, "sub/b.py", "def b():\n    return 2\n")
	writeFile(t, root, "node_modules/dep/index.js", "module.exports = {};")
	writeFile(t, root, "readme.md", "# not source")

	stats, err := engine.AnalyzeRepository(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalFiles)
	assert.Equal(t, 2, stats.FilesProcessed)
	assert.Equal(t, 0, stats.FilesFailed)
	assert.GreaterOrEqual(t, stats.AverageBiasScore, 0.0)
	assert.LessOrEqual(t, stats.AverageBiasScore, 1.0)

	paths, err := engine.store.ListPaths(ctx)
	require.NoError(t, err)
	assert.Len(t, paths, 2)
}

func TestAnalyzeRepositorySkipsUnchanged(t *testing.T) {
	engine, root := newTestEngine(t)
	ctx := context.Background()

	writeFile(t, root, "a.js", "export function a() {}")

	first, err := engine.AnalyzeRepository(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.FilesProcessed)

	second, err := engine.AnalyzeRepository(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.FilesProcessed)
	assert.Equal(t, 1, second.FilesSkipped)
}

func TestUpdateFileModified(t *testing.T) {
	engine, root := newTestEngine(t)

	writeFile(t, root, "a.js", "export function a() {}")

	result := engine.UpdateFile(context.Background(), "a.js", types.ChangeModified)
	assert.True(t, result.Success)
	require.NotNil(t, result.BiasScore)
	assert.GreaterOrEqual(t, *result.BiasScore, 0.0)
}

func TestUpdateFileDeleted(t *testing.T) {
	engine, root := newTestEngine(t)
	ctx := context.Background()

	path := writeFile(t, root, "a.js", "export function a() {}")
	_, err := engine.ProcessFile(ctx, path)
	require.NoError(t, err)

	result := engine.UpdateFile(ctx, path, types.ChangeDeleted)
	assert.True(t, result.Success)
	assert.Nil(t, result.BiasScore)

	_, err = engine.store.GetRepresentation(ctx, path)
	assert.ErrorIs(t, err, graphstore.ErrNotFound)
}

func TestUpdateFileInvalidChangeType(t *testing.T) {
	engine, root := newTestEngine(t)

	writeFile(t, root, "a.js", "export function a() {}")

	result := engine.UpdateFile(context.Background(), "a.js", "renamed")
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "unknown change type")
}

func TestUpdateFileOutsideRootNoMutation(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	result := engine.UpdateFile(ctx, "/etc/passwd", types.ChangeDeleted)
	assert.False(t, result.Success)

	reps, _, err := engine.store.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, reps)
}

func TestUpdateFilesPreservesOrder(t *testing.T) {
	engine, root := newTestEngine(t)

	writeFile(t, root, "a.js", "export function a() {}")
	writeFile(t, root, "c.js", "export function c() {}")

	batch := engine.UpdateFiles(context.Background(), []FileChange{
		{FilePath: "a.js", Change: types.ChangeCreated},
		{FilePath: "missing.js", Change: types.ChangeModified},
		{FilePath: "c.js", Change: types.ChangeCreated},
	})

	require.Len(t, batch.Results, 3)
	assert.True(t, batch.Results[0].Success)
	assert.False(t, batch.Results[1].Success)
	assert.True(t, batch.Results[2].Success)
	assert.Equal(t, 2, batch.Succeeded)
	assert.Equal(t, 1, batch.Failed)

	assert.Contains(t, batch.Results[0].FilePath, "a.js")
	assert.Contains(t, batch.Results[1].FilePath, "missing.js")
	assert.Contains(t, batch.Results[2].FilePath, "c.js")
}

func TestQueryCodeReturnsRankedResults(t *testing.T) {
	engine, root := newTestEngine(t)
	ctx := context.Background()

	writeFile(t, root, "search.js", `export function search(query) {
  return index.filter(query);
}
`)
	writeFile(t, root, "render.js", `export function render(el) {
  el.paint();
}
`)
	_, err := engine.AnalyzeRepository(ctx)
	require.NoError(t, err)

	results, err := engine.QueryCode(ctx, "search filter", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Contains(t, results[0].FilePath, "search.js")
	assert.Equal(t, 1, results[0].Rank)
	for _, r := range results {
		assert.GreaterOrEqual(t, r.Scores.Combined, 0.0)
		assert.LessOrEqual(t, r.Scores.Combined, 1.0)
	}
}

func TestQueryCodeEmptyQuery(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.QueryCode(context.Background(), "  ", 5)
	assert.Error(t, err)
}

func TestQueryCodeWithContext(t *testing.T) {
	engine, root := newTestEngine(t)
	ctx := context.Background()

	writeFile(t, root, "util.js", "export function helper(x) { return x; }")
	writeFile(t, root, "search.js", `import { helper } from './util';

export function search(query) {
  return helper(query);
}
`)
	_, err := engine.AnalyzeRepository(ctx)
	require.NoError(t, err)

	results, err := engine.QueryCodeWithContext(ctx, "search helper", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	top := results[0]
	assert.Contains(t, top.FilePath, "search.js")
	assert.NotEmpty(t, top.RelatedComponents)
	assert.NotEmpty(t, top.ContextSummary)
	assert.NotEmpty(t, top.DependencyChain)
	assert.Equal(t, top.FilePath, top.DependencyChain[0])
}

func TestBiasAnalysisAllFiles(t *testing.T) {
	engine, root := newTestEngine(t)
	ctx := context.Background()

	writeFile(t, root, "a.js", "export function a() {}")
	writeFile(t, root, "b.js", "export function b() {}")
	_, err := engine.AnalyzeRepository(ctx)
	require.NoError(t, err)

	report, err := engine.BiasAnalysis(ctx, "")
	require.NoError(t, err)
	assert.Len(t, report.Files, 2)
	assert.Equal(t, DefaultBiasThreshold, report.Threshold)
	for _, f := range report.Files {
		assert.GreaterOrEqual(t, f.BiasScore, 0.0)
		assert.LessOrEqual(t, f.BiasScore, 1.0)
	}
}

func TestBiasAnalysisSingleFileNotFound(t *testing.T) {
	engine, root := newTestEngine(t)

	writeFile(t, root, "a.js", "export function a() {}")

	_, err := engine.BiasAnalysis(context.Background(), "a.js")
	assert.Error(t, err)
}

func TestStats(t *testing.T) {
	engine, root := newTestEngine(t)
	ctx := context.Background()

	writeFile(t, root, "a.js", "export function a() {}")
	_, err := engine.AnalyzeRepository(ctx)
	require.NoError(t, err)

	stats, err := engine.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, engine.Root(), stats.RepositoryRoot)
	assert.Equal(t, "test", stats.Namespace)
	assert.Equal(t, 1, stats.Representations)
	assert.Equal(t, oracle.ProviderLocal, stats.OracleProvider)
	assert.False(t, stats.LastAnalyzedAt.IsZero())
	assert.GreaterOrEqual(t, stats.CachedFiles, 1)
}
