package types

import "errors"

// RelationType identifies the kind of edge between two files.
type RelationType string

const (
	RelationImports    RelationType = "imports"
	RelationExports    RelationType = "exports"
	RelationCalls      RelationType = "calls"
	RelationExtends    RelationType = "extends"
	RelationImplements RelationType = "implements"
	RelationMixin      RelationType = "mixin"
	RelationUses       RelationType = "uses"
	RelationDependsOn  RelationType = "depends_on"
)

// AllRelationTypes lists every edge type, in default-weight order.
var AllRelationTypes = []RelationType{
	RelationImports, RelationExtends, RelationCalls, RelationImplements,
	RelationExports, RelationUses, RelationDependsOn, RelationMixin,
}

// ValidateRelationType checks if the relation type is known.
func ValidateRelationType(rt RelationType) error {
	switch rt {
	case RelationImports, RelationExports, RelationCalls, RelationExtends,
		RelationImplements, RelationMixin, RelationUses, RelationDependsOn:
		return nil
	default:
		return errors.New("invalid relation type")
	}
}

// ImportType classifies how a symbol is imported.
type ImportType string

const (
	ImportDefault   ImportType = "default"
	ImportNamed     ImportType = "named"
	ImportNamespace ImportType = "namespace"
	ImportDynamic   ImportType = "dynamic"
)

// ExportType classifies how a symbol is exported.
type ExportType string

const (
	ExportDefault   ExportType = "default"
	ExportNamed     ExportType = "named"
	ExportNamespace ExportType = "namespace"
)

// CallType classifies a call site.
type CallType string

const (
	CallDirect      CallType = "direct"
	CallMethod      CallType = "method"
	CallConstructor CallType = "constructor"
	CallAsync       CallType = "async"
)

// InheritanceType classifies an inheritance edge.
type InheritanceType string

const (
	InheritExtends    InheritanceType = "extends"
	InheritImplements InheritanceType = "implements"
	InheritMixin      InheritanceType = "mixin"
)

// DependencyType classifies where a dependency comes from.
type DependencyType string

const (
	DependencyPackage DependencyType = "npm"
	DependencyLocal   DependencyType = "local"
	DependencyBuiltin DependencyType = "builtin"
)

// ImportRelation records one import statement. To is an absolute
// repository-relative path for local imports, or the verbatim module
// specifier for external imports.
type ImportRelation struct {
	From       string
	To         string
	Symbols    []string
	ImportType ImportType
	LineNumber int
}

// ExportRelation records one exported symbol.
type ExportRelation struct {
	From       string
	Symbol     string
	ExportType ExportType
	LineNumber int
}

// CallRelation records one call site. Object is set for method calls
// (the receiver expression); To is the called symbol or the enclosing
// context for the call.
type CallRelation struct {
	From       string
	To         string
	Object     string
	CallType   CallType
	Context    string // enclosing function or "global"
	LineNumber int
}

// InheritanceRelation records an extends/implements/mixin edge.
type InheritanceRelation struct {
	From       string
	To         string
	Type       InheritanceType
	LineNumber int
}

// DependencyRelation records a module-level dependency and how it is used.
type DependencyRelation struct {
	From           string
	To             string
	DependencyType DependencyType
	Usage          []string
}

// RelationshipSet groups every relationship extracted from one file.
type RelationshipSet struct {
	Imports      []ImportRelation
	Exports      []ExportRelation
	Calls        []CallRelation
	Inheritance  []InheritanceRelation
	Dependencies []DependencyRelation
}

// Count returns the total number of relationships in the set.
func (rs *RelationshipSet) Count() int {
	return len(rs.Imports) + len(rs.Exports) + len(rs.Calls) + len(rs.Inheritance) + len(rs.Dependencies)
}

// Clone returns a deep copy of the set.
func (rs *RelationshipSet) Clone() RelationshipSet {
	out := RelationshipSet{
		Imports:      append([]ImportRelation(nil), rs.Imports...),
		Exports:      append([]ExportRelation(nil), rs.Exports...),
		Calls:        append([]CallRelation(nil), rs.Calls...),
		Inheritance:  append([]InheritanceRelation(nil), rs.Inheritance...),
		Dependencies: append([]DependencyRelation(nil), rs.Dependencies...),
	}
	for i := range out.Imports {
		out.Imports[i].Symbols = append([]string(nil), rs.Imports[i].Symbols...)
	}
	for i := range out.Dependencies {
		out.Dependencies[i].Usage = append([]string(nil), rs.Dependencies[i].Usage...)
	}
	return out
}

// RelatedComponent is a derived, read-only view of a file reachable from a
// traversal start point. Never persisted; recomputed per query.
type RelatedComponent struct {
	FilePath         string
	ComponentName    string
	ComponentType    string
	RelationshipType RelationType
	RelevanceScore   float64
	Distance         int
}

// Validate checks the related-component invariants.
func (rc *RelatedComponent) Validate() error {
	if rc.FilePath == "" {
		return errors.New("file path is required")
	}
	if rc.RelevanceScore < 0 || rc.RelevanceScore > 1 {
		return ErrInvalidRelevanceScore
	}
	if rc.Distance < 1 {
		return errors.New("distance must be >= 1")
	}
	return nil
}

// GraphNode is a node in an on-demand relationship graph snapshot.
type GraphNode struct {
	FilePath string
	Label    string
}

// GraphEdge is an edge in an on-demand relationship graph snapshot.
type GraphEdge struct {
	From   string
	To     string
	Type   RelationType
	Weight float64
}

// RelationshipGraph is a snapshot built at query time for visualization and
// explanation. It is derived from the store's edge set, never persisted.
type RelationshipGraph struct {
	Nodes       []GraphNode
	Edges       []GraphEdge
	PrimaryNode string
	MaxDepth    int
}

// TraversalStats reports what a single traversal actually did.
type TraversalStats struct {
	NodesVisited    int
	EdgesTraversed  int
	MaxDepthReached int
	ElapsedMS       int64
}

// GraphTraversalResult bundles the components, the snapshot, and the stats
// for one traversal call.
type GraphTraversalResult struct {
	RelatedComponents []RelatedComponent
	Graph             RelationshipGraph
	Stats             TraversalStats
}
