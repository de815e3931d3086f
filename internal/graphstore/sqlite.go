package graphstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mdevan/debias-mcp/internal/oracle"
	"github.com/mdevan/debias-mcp/pkg/types"
)

// rrfConstant is the k value for Reciprocal Rank Fusion of the lexical and
// semantic rankings.
const rrfConstant = 60.0

// SQLiteStore is the SQLite-backed Store implementation. All rows are
// partitioned by namespace so one database can hold several repositories.
type SQLiteStore struct {
	db        *sql.DB
	namespace string
	embedder  oracle.Embedder // nil disables the semantic search leg
}

// NewSQLiteStore opens (and migrates) a SQLite database at dbPath. Use
// ":memory:" for an ephemeral store.
func NewSQLiteStore(dbPath, namespace string, embedder oracle.Embedder) (*SQLiteStore, error) {
	if namespace == "" {
		return nil, fmt.Errorf("namespace is required")
	}

	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite allows a single writer; serialize access through one connection.
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db, namespace: namespace, embedder: embedder}, nil
}

// Namespace returns the store's repository namespace.
func (s *SQLiteStore) Namespace() string {
	return s.namespace
}

// Close releases the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// semanticRecord is the JSON shape of the semantic feature column.
type semanticRecord struct {
	Embedding           []float32 `json:"embedding,omitempty"`
	FunctionalSignature string    `json:"functional_signature"`
	BehaviorPattern     string    `json:"behavior_pattern"`
}

// UpsertRepresentation stores a representation, fully replacing any previous
// row under the same path.
func (s *SQLiteStore) UpsertRepresentation(ctx context.Context, rep *types.CodeRepresentation) error {
	if err := rep.Validate(); err != nil {
		return fmt.Errorf("invalid representation: %w", err)
	}

	textualJSON, err := json.Marshal(rep.Textual)
	if err != nil {
		return fmt.Errorf("marshal textual features: %w", err)
	}
	structuralJSON, err := json.Marshal(rep.Structural)
	if err != nil {
		return fmt.Errorf("marshal structural features: %w", err)
	}
	semanticJSON, err := json.Marshal(semanticRecord{
		Embedding:           rep.Semantic.Embedding,
		FunctionalSignature: rep.Semantic.FunctionalSignature,
		BehaviorPattern:     rep.Semantic.BehaviorPattern,
	})
	if err != nil {
		return fmt.Errorf("marshal semantic features: %w", err)
	}

	var relationshipsJSON []byte
	if rep.Relationships != nil {
		relationshipsJSON, err = json.Marshal(rep.Relationships)
		if err != nil {
			return fmt.Errorf("marshal relationships: %w", err)
		}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO representations
			(namespace, file_path, content, textual_json, structural_json, semantic_json,
			 relationships_json, bias_score, embedding, embedding_dim, last_modified, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(namespace, file_path) DO UPDATE SET
			content = excluded.content,
			textual_json = excluded.textual_json,
			structural_json = excluded.structural_json,
			semantic_json = excluded.semantic_json,
			relationships_json = excluded.relationships_json,
			bias_score = excluded.bias_score,
			embedding = excluded.embedding,
			embedding_dim = excluded.embedding_dim,
			last_modified = excluded.last_modified,
			updated_at = CURRENT_TIMESTAMP
	`, s.namespace, rep.FilePath, rep.Content, textualJSON, structuralJSON, semanticJSON,
		relationshipsJSON, rep.BiasScore, serializeVector(rep.AugmentedEmbedding),
		len(rep.AugmentedEmbedding), rep.LastModified)
	if err != nil {
		return fmt.Errorf("upsert representation: %w", err)
	}

	return nil
}

// GetRepresentation loads the representation stored for a path.
func (s *SQLiteStore) GetRepresentation(ctx context.Context, filePath string) (*types.CodeRepresentation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT file_path, content, textual_json, structural_json, semantic_json,
		       relationships_json, bias_score, embedding, last_modified
		FROM representations
		WHERE namespace = ? AND file_path = ?
	`, s.namespace, filePath)

	return scanRepresentation(row)
}

// rowScanner abstracts *sql.Row and *sql.Rows for representation scanning.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRepresentation(row rowScanner) (*types.CodeRepresentation, error) {
	var (
		rep               types.CodeRepresentation
		textualJSON       []byte
		structuralJSON    []byte
		semanticJSON      []byte
		relationshipsJSON []byte
		embedding         []byte
		lastModified      sql.NullTime
	)

	err := row.Scan(&rep.FilePath, &rep.Content, &textualJSON, &structuralJSON,
		&semanticJSON, &relationshipsJSON, &rep.BiasScore, &embedding, &lastModified)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan representation: %w", err)
	}

	if err := json.Unmarshal(textualJSON, &rep.Textual); err != nil {
		return nil, fmt.Errorf("unmarshal textual features: %w", err)
	}
	if err := json.Unmarshal(structuralJSON, &rep.Structural); err != nil {
		return nil, fmt.Errorf("unmarshal structural features: %w", err)
	}
	var sem semanticRecord
	if err := json.Unmarshal(semanticJSON, &sem); err != nil {
		return nil, fmt.Errorf("unmarshal semantic features: %w", err)
	}
	rep.Semantic = types.SemanticFeatures{
		Embedding:           sem.Embedding,
		FunctionalSignature: sem.FunctionalSignature,
		BehaviorPattern:     sem.BehaviorPattern,
	}
	if len(relationshipsJSON) > 0 {
		var rs types.RelationshipSet
		if err := json.Unmarshal(relationshipsJSON, &rs); err != nil {
			return nil, fmt.Errorf("unmarshal relationships: %w", err)
		}
		rep.Relationships = &rs
	}
	rep.AugmentedEmbedding = deserializeVector(embedding)
	if lastModified.Valid {
		rep.LastModified = lastModified.Time
	}

	return &rep, nil
}

// DeleteRepresentation removes a representation and every edge where the
// path appears as either endpoint.
func (s *SQLiteStore) DeleteRepresentation(ctx context.Context, filePath string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM representations WHERE namespace = ? AND file_path = ?`,
		s.namespace, filePath); err != nil {
		return fmt.Errorf("delete representation: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM relationships WHERE namespace = ? AND (from_path = ? OR to_path = ?)`,
		s.namespace, filePath, filePath); err != nil {
		return fmt.Errorf("delete relationships: %w", err)
	}

	return tx.Commit()
}

// DeleteEdgesFrom removes every outgoing edge of a file. Incoming edges
// are left alone so other files keep their recorded references.
func (s *SQLiteStore) DeleteEdgesFrom(ctx context.Context, filePath string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM relationships WHERE namespace = ? AND from_path = ?`,
		s.namespace, filePath)
	if err != nil {
		return fmt.Errorf("delete edges: %w", err)
	}
	return nil
}

// ListPaths returns every stored file path in the namespace, sorted.
func (s *SQLiteStore) ListPaths(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT file_path FROM representations WHERE namespace = ? ORDER BY file_path`, s.namespace)
	if err != nil {
		return nil, fmt.Errorf("list paths: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// Counts returns the number of representations and relationships stored.
func (s *SQLiteStore) Counts(ctx context.Context) (int, int, error) {
	var reps, rels int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM representations WHERE namespace = ?`, s.namespace).Scan(&reps); err != nil {
		return 0, 0, err
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM relationships WHERE namespace = ?`, s.namespace).Scan(&rels); err != nil {
		return 0, 0, err
	}
	return reps, rels, nil
}

// StoreRelationship stores one edge. A zero weight defaults from the static
// per-type table.
func (s *SQLiteStore) StoreRelationship(ctx context.Context, edge Edge) error {
	if err := types.ValidateRelationType(edge.Type); err != nil {
		return err
	}
	weight := edge.Weight
	if weight == 0 {
		weight = TypeWeight(edge.Type)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO relationships (namespace, from_path, to_path, rel_type, weight, line_number, details)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(namespace, from_path, to_path, rel_type, line_number) DO UPDATE SET
			weight = excluded.weight,
			details = excluded.details
	`, s.namespace, edge.From, edge.To, string(edge.Type), weight, edge.LineNumber, edge.Details)
	if err != nil {
		return fmt.Errorf("store relationship: %w", err)
	}
	return nil
}

// EdgesFrom returns every outgoing edge of a file.
func (s *SQLiteStore) EdgesFrom(ctx context.Context, filePath string) ([]Edge, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT from_path, to_path, rel_type, weight, line_number, COALESCE(details, '')
		FROM relationships
		WHERE namespace = ? AND from_path = ?
	`, s.namespace, filePath)
	if err != nil {
		return nil, fmt.Errorf("query edges: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var edges []Edge
	for rows.Next() {
		var e Edge
		var relType string
		if err := rows.Scan(&e.From, &e.To, &relType, &e.Weight, &e.LineNumber, &e.Details); err != nil {
			return nil, err
		}
		e.Type = types.RelationType(relType)
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// searchCandidate holds per-row scoring state during Search.
type searchCandidate struct {
	path         string
	lexicalScore float64
	vectorScore  float64
	fused        float64
}

// Search performs hybrid lexical/semantic candidate retrieval fused with
// Reciprocal Rank Fusion. The semantic leg is skipped when no embedder is
// configured or the query embedding fails; search still returns lexical
// candidates in that case.
func (s *SQLiteStore) Search(ctx context.Context, query string, limit int) ([]*types.CodeRepresentation, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT file_path, content, textual_json, embedding
		FROM representations
		WHERE namespace = ?
	`, s.namespace)
	if err != nil {
		return nil, fmt.Errorf("query representations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var queryVec []float32
	if s.embedder != nil {
		if vec, err := s.embedder.Embed(ctx, query); err == nil {
			queryVec = vec
		}
	}

	queryTokens := tokenize(query)
	var candidates []*searchCandidate
	for rows.Next() {
		var (
			path        string
			content     string
			textualJSON []byte
			embedding   []byte
		)
		if err := rows.Scan(&path, &content, &textualJSON, &embedding); err != nil {
			return nil, err
		}

		var tf types.TextualFeatures
		_ = json.Unmarshal(textualJSON, &tf)

		c := &searchCandidate{path: path}
		c.lexicalScore = lexicalScore(queryTokens, content, &tf)
		if queryVec != nil {
			c.vectorScore = cosineSimilarity(queryVec, deserializeVector(embedding))
		}
		if c.lexicalScore > 0 || c.vectorScore > 0 {
			candidates = append(candidates, c)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	fuseRankings(candidates)

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].fused != candidates[j].fused {
			return candidates[i].fused > candidates[j].fused
		}
		return candidates[i].path < candidates[j].path
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	results := make([]*types.CodeRepresentation, 0, len(candidates))
	for _, c := range candidates {
		rep, err := s.GetRepresentation(ctx, c.path)
		if err != nil {
			continue // representation deleted mid-search
		}
		results = append(results, rep)
	}
	return results, nil
}

// fuseRankings computes RRF scores from the lexical and vector rankings.
func fuseRankings(candidates []*searchCandidate) {
	byLexical := make([]*searchCandidate, len(candidates))
	copy(byLexical, candidates)
	sort.Slice(byLexical, func(i, j int) bool { return byLexical[i].lexicalScore > byLexical[j].lexicalScore })

	byVector := make([]*searchCandidate, len(candidates))
	copy(byVector, candidates)
	sort.Slice(byVector, func(i, j int) bool { return byVector[i].vectorScore > byVector[j].vectorScore })

	for rank, c := range byLexical {
		if c.lexicalScore > 0 {
			c.fused += 1.0 / (rrfConstant + float64(rank+1))
		}
	}
	for rank, c := range byVector {
		if c.vectorScore > 0 {
			c.fused += 1.0 / (rrfConstant + float64(rank+1))
		}
	}
}

// lexicalScore is the fraction of query tokens present in the candidate's
// content or textual surface.
func lexicalScore(queryTokens []string, content string, tf *types.TextualFeatures) float64 {
	if len(queryTokens) == 0 {
		return 0
	}
	haystack := strings.ToLower(content + " " + strings.Join(tf.Surface(), " "))
	matched := 0
	for _, tok := range queryTokens {
		if strings.Contains(haystack, tok) {
			matched++
		}
	}
	return float64(matched) / float64(len(queryTokens))
}

// tokenize lowercases and splits a query into word tokens.
func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9') && r != '_'
	})
	var out []string
	for _, f := range fields {
		if len(f) > 1 {
			out = append(out, f)
		}
	}
	return out
}
