package integration

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mdevan/debias-mcp/internal/graphstore"
	"github.com/mdevan/debias-mcp/internal/oracle"
	"github.com/mdevan/debias-mcp/internal/pipeline"
	"github.com/mdevan/debias-mcp/pkg/types"
)

// PipelineTestSuite exercises the full analysis pipeline against the
// fixture repository: analyze, query, update, and report.
type PipelineTestSuite struct {
	suite.Suite
	ctx    context.Context
	root   string
	engine *pipeline.Engine
	store  graphstore.Store
}

// SetupTest copies the fixtures into a fresh root and builds an engine
// over a file-backed store, so each test starts from a clean index.
func (s *PipelineTestSuite) SetupTest() {
	s.ctx = context.Background()

	wd, err := os.Getwd()
	s.Require().NoError(err)
	fixtures := filepath.Join(filepath.Dir(wd), "testdata", "fixtures")

	s.root = s.T().TempDir()
	s.Require().NoError(copyTree(fixtures, s.root))

	orc, err := oracle.New(oracle.Config{Provider: oracle.ProviderLocal, CacheSize: 200})
	s.Require().NoError(err)

	dbFile := filepath.Join(s.T().TempDir(), "debias.db")
	store, err := graphstore.NewSQLiteStore(dbFile, "integration", orc)
	s.Require().NoError(err)
	s.store = store

	engine, err := pipeline.New(s.root, store, orc, &pipeline.Config{Workers: 2})
	s.Require().NoError(err)
	s.engine = engine
}

func (s *PipelineTestSuite) TearDownTest() {
	if s.store != nil {
		s.Require().NoError(s.store.Close())
	}
}

func (s *PipelineTestSuite) TestAnalyzeRepository() {
	stats, err := s.engine.AnalyzeRepository(s.ctx)
	s.Require().NoError(err)

	s.Equal(5, stats.TotalFiles)
	s.Equal(5, stats.FilesProcessed)
	s.Equal(0, stats.FilesFailed)
	s.Empty(stats.ErrorMessages)
	s.GreaterOrEqual(stats.AverageBiasScore, 0.0)
	s.LessOrEqual(stats.AverageBiasScore, 1.0)

	paths, err := s.store.ListPaths(s.ctx)
	s.Require().NoError(err)
	s.Len(paths, 5)
}

func (s *PipelineTestSuite) TestReanalyzeSkipsUnchanged() {
	_, err := s.engine.AnalyzeRepository(s.ctx)
	s.Require().NoError(err)

	stats, err := s.engine.AnalyzeRepository(s.ctx)
	s.Require().NoError(err)
	s.Equal(0, stats.FilesProcessed)
	s.Equal(5, stats.FilesSkipped)
}

func (s *PipelineTestSuite) TestQueryRanksSearchModuleFirst() {
	_, err := s.engine.AnalyzeRepository(s.ctx)
	s.Require().NoError(err)

	results, err := s.engine.QueryCode(s.ctx, "search documents by query", 3)
	s.Require().NoError(err)
	s.Require().NotEmpty(results)

	s.True(strings.HasSuffix(results[0].FilePath, filepath.Join("src", "search.js")),
		"expected search.js first, got %s", results[0].FilePath)
	s.Equal(1, results[0].Rank)
	for i := 1; i < len(results); i++ {
		s.LessOrEqual(results[i].Scores.Combined, results[i-1].Scores.Combined)
	}
}

func (s *PipelineTestSuite) TestQueryWithContextFollowsImports() {
	_, err := s.engine.AnalyzeRepository(s.ctx)
	s.Require().NoError(err)

	results, err := s.engine.QueryCodeWithContext(s.ctx, "search documents", 3)
	s.Require().NoError(err)
	s.Require().NotEmpty(results)

	top := results[0]
	s.True(strings.HasSuffix(top.FilePath, "search.js"))
	s.NotEmpty(top.RelatedComponents)
	s.NotEmpty(top.ContextSummary)
	s.Require().NotEmpty(top.DependencyChain)
	s.Equal(top.FilePath, top.DependencyChain[0])

	var importedUtil bool
	for _, c := range top.RelatedComponents {
		if strings.HasSuffix(c.FilePath, "util.js") {
			importedUtil = true
			s.Greater(c.RelevanceScore, 0.0)
		}
	}
	s.True(importedUtil, "search.js should be linked to util.js")
}

func (s *PipelineTestSuite) TestUpdateLifecycle() {
	_, err := s.engine.AnalyzeRepository(s.ctx)
	s.Require().NoError(err)

	target := filepath.Join(s.root, "src", "util.js")
	updated := "export function tokenize(text) { return text.split(' '); }\n"
	s.Require().NoError(os.WriteFile(target, []byte(updated), 0644))

	result := s.engine.UpdateFile(s.ctx, target, types.ChangeModified)
	s.True(result.Success)
	s.Require().NotNil(result.BiasScore)

	rep, err := s.store.GetRepresentation(s.ctx, target)
	s.Require().NoError(err)
	s.Equal(updated, rep.Content)

	result = s.engine.UpdateFile(s.ctx, target, types.ChangeDeleted)
	s.True(result.Success)
	_, err = s.store.GetRepresentation(s.ctx, target)
	s.ErrorIs(err, graphstore.ErrNotFound)
}

func (s *PipelineTestSuite) TestBatchUpdateContinuesPastFailures() {
	batch := s.engine.UpdateFiles(s.ctx, []pipeline.FileChange{
		{FilePath: filepath.Join("src", "util.js"), Change: types.ChangeCreated},
		{FilePath: "/etc/passwd", Change: types.ChangeModified},
		{FilePath: "models.py", Change: types.ChangeCreated},
	})

	s.Equal(2, batch.Succeeded)
	s.Equal(1, batch.Failed)
	s.Require().Len(batch.Results, 3)
	s.True(batch.Results[0].Success)
	s.False(batch.Results[1].Success)
	s.True(batch.Results[2].Success)
}

func (s *PipelineTestSuite) TestBiasReportFlagsVerboseFile() {
	_, err := s.engine.AnalyzeRepository(s.ctx)
	s.Require().NoError(err)

	report, err := s.engine.BiasAnalysis(s.ctx, "")
	s.Require().NoError(err)
	s.Len(report.Files, 5)

	var auth *types.FileBiasReport
	for i := range report.Files {
		if strings.HasSuffix(report.Files[i].FilePath, "auth.js") {
			auth = &report.Files[i]
		}
	}
	s.Require().NotNil(auth, "auth.js should appear in the report")
	s.NotEmpty(auth.Indicators, "heavily documented file should carry indicators")

	for i := 1; i < len(report.Files); i++ {
		s.LessOrEqual(report.Files[i].BiasScore, report.Files[i-1].BiasScore)
	}
}

func (s *PipelineTestSuite) TestRelationshipGraph() {
	_, err := s.engine.AnalyzeRepository(s.ctx)
	s.Require().NoError(err)

	searchPath := filepath.Join(s.root, "src", "search.js")
	result, err := s.engine.RelationshipGraph(s.ctx, searchPath, nil, 2)
	s.Require().NoError(err)

	s.NotEmpty(result.Graph.Nodes)
	s.NotEmpty(result.Graph.Edges)
	s.GreaterOrEqual(result.Stats.NodesVisited, 1)
}

func TestPipelineSuite(t *testing.T) {
	suite.Run(t, new(PipelineTestSuite))
}

// copyTree copies a fixture directory into dst.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0644)
	})
}
