package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdevan/debias-mcp/pkg/types"
)

func TestExtractJavaScriptRelativeImport(t *testing.T) {
	registry := NewRegistry()

	content := `import { helper } from './bar';

export function useHelper(x) {
  return helper(x);
}
`
	res := registry.Extract(content, "/workspace/a.js", "")
	require.NotNil(t, res)

	require.Len(t, res.Relationships.Imports, 1)
	imp := res.Relationships.Imports[0]
	assert.Equal(t, "/workspace/bar", imp.To)
	assert.Equal(t, "/workspace/a.js", imp.From)
	assert.Equal(t, types.ImportNamed, imp.ImportType)
	assert.Equal(t, []string{"helper"}, imp.Symbols)
	assert.Equal(t, 1, imp.LineNumber)

	require.Len(t, res.Relationships.Dependencies, 1)
	assert.Equal(t, types.DependencyLocal, res.Relationships.Dependencies[0].DependencyType)
}

func TestExtractJavaScriptExternalImport(t *testing.T) {
	registry := NewRegistry()

	content := `import React from 'react';
const api = require('axios');
`
	res := registry.Extract(content, "/workspace/app.jsx", "")

	require.Len(t, res.Relationships.Imports, 2)
	assert.Equal(t, "react", res.Relationships.Imports[0].To)
	assert.Equal(t, types.ImportDefault, res.Relationships.Imports[0].ImportType)
	assert.Equal(t, "axios", res.Relationships.Imports[1].To)

	for _, dep := range res.Relationships.Dependencies {
		assert.Equal(t, types.DependencyPackage, dep.DependencyType)
	}
}

func TestExtractJavaScriptParentImport(t *testing.T) {
	registry := NewRegistry()

	res := registry.Extract(`import { x } from '../lib/util';`, "/workspace/src/a.js", "")

	require.Len(t, res.Relationships.Imports, 1)
	assert.Equal(t, "/workspace/lib/util", res.Relationships.Imports[0].To)
}

func TestExtractJavaScriptStructure(t *testing.T) {
	registry := NewRegistry()

	content := `// service layer
class UserService extends BaseService {
  find(id) {
    if (id) {
      return this.repo.load(id);
    }
    return null;
  }
}

const format = (u) => u.name;

export default UserService;
`
	res := registry.Extract(content, "/workspace/service.js", "")

	assert.Equal(t, 1, res.Structural.ClassCount)
	assert.GreaterOrEqual(t, res.Structural.FunctionCount, 1)
	assert.GreaterOrEqual(t, res.Structural.Complexity, 2) // baseline + if
	assert.Contains(t, res.Textual.Identifiers, "UserService")
	assert.Contains(t, res.Textual.Comments, "service layer")

	require.Len(t, res.Relationships.Inheritance, 1)
	assert.Equal(t, "BaseService", res.Relationships.Inheritance[0].To)
	assert.Equal(t, types.InheritExtends, res.Relationships.Inheritance[0].Type)

	require.NotEmpty(t, res.Relationships.Exports)
	assert.Equal(t, types.ExportDefault, res.Relationships.Exports[0].ExportType)
}

func TestExtractGoSource(t *testing.T) {
	registry := NewRegistry()

	content := `package demo

import (
	"fmt"

	"github.com/stretchr/testify/assert"
)

// Greeter greets.
type Greeter struct {
	Name string
}

// Greet prints a greeting.
func Greet(g Greeter) {
	if g.Name != "" {
		fmt.Println(g.Name)
	}
}

func helper() {}
`
	res := registry.Extract(content, "/workspace/demo.go", "")

	assert.Equal(t, 2, res.Structural.FunctionCount)
	assert.Equal(t, 1, res.Structural.ClassCount)
	assert.GreaterOrEqual(t, res.Structural.Complexity, 2)
	assert.Contains(t, res.Textual.Identifiers, "Greet")
	assert.Contains(t, res.Textual.Identifiers, "Greeter")
	assert.NotEmpty(t, res.Textual.Docstrings)

	require.Len(t, res.Relationships.Imports, 2)
	assert.Equal(t, "fmt", res.Relationships.Imports[0].To)

	var depTypes []types.DependencyType
	for _, d := range res.Relationships.Dependencies {
		depTypes = append(depTypes, d.DependencyType)
	}
	assert.Contains(t, depTypes, types.DependencyBuiltin)
	assert.Contains(t, depTypes, types.DependencyPackage)

	var exported []string
	for _, e := range res.Relationships.Exports {
		exported = append(exported, e.Symbol)
	}
	assert.Contains(t, exported, "Greet")
	assert.Contains(t, exported, "Greeter")
	assert.NotContains(t, exported, "helper")
}

func TestExtractGoCallContext(t *testing.T) {
	registry := NewRegistry()

	content := `package demo

import "fmt"

func outer() {
	fmt.Println("hi")
	go run()
}

func run() {}
`
	res := registry.Extract(content, "/workspace/calls.go", "")

	require.NotEmpty(t, res.Relationships.Calls)
	byTarget := map[string]types.CallRelation{}
	for _, c := range res.Relationships.Calls {
		byTarget[c.To] = c
	}

	println := byTarget["Println"]
	assert.Equal(t, "outer", println.Context)
	assert.Equal(t, types.CallMethod, println.CallType)
	assert.Equal(t, "fmt", println.Object)

	run := byTarget["run"]
	assert.Equal(t, types.CallAsync, run.CallType)
}

func TestExtractPythonSource(t *testing.T) {
	registry := NewRegistry()

	content := `"""User helpers."""
from .models import User
import os

class Repo(Base):
    def find(self, uid):
        if uid:
            return self.db.get(uid)
        return None
`
	res := registry.Extract(content, "/workspace/repo.py", "")

	assert.Equal(t, 1, res.Structural.ClassCount)
	assert.Equal(t, 1, res.Structural.FunctionCount)
	assert.NotEmpty(t, res.Textual.Docstrings)

	require.Len(t, res.Relationships.Imports, 2)
	assert.Equal(t, "/workspace/models", res.Relationships.Imports[0].To)
	assert.Equal(t, []string{"User"}, res.Relationships.Imports[0].Symbols)
	assert.Equal(t, "os", res.Relationships.Imports[1].To)

	require.Len(t, res.Relationships.Inheritance, 1)
	assert.Equal(t, "Base", res.Relationships.Inheritance[0].To)
}

func TestExtractDeterministic(t *testing.T) {
	registry := NewRegistry()

	content := `import { a } from './a';
export function fn(x) {
  if (x && x.ok) {
    return a(x);
  }
}
`
	first := registry.Extract(content, "/workspace/det.js", "")
	second := registry.Extract(content, "/workspace/det.js", "")

	assert.Equal(t, first, second)
}

func TestExtractMalformedGoFallsBack(t *testing.T) {
	registry := NewRegistry()

	res := registry.Extract("package {{{ not valid go", "/workspace/bad.go", "")

	require.NotNil(t, res)
	assert.GreaterOrEqual(t, res.Structural.Complexity, 1)
}

func TestExtractUnknownExtensionUsesGeneric(t *testing.T) {
	registry := NewRegistry()

	assert.Equal(t, "generic", registry.StrategyFor("/workspace/query.sql", ""))

	res := registry.Extract("SELECT * FROM users WHERE id = 1;", "/workspace/query.sql", "")
	require.NotNil(t, res)
	assert.GreaterOrEqual(t, res.Structural.Complexity, 1)
}

func TestExtractLanguageHintOverridesExtension(t *testing.T) {
	registry := NewRegistry()

	assert.Equal(t, "ast", registry.StrategyFor("/workspace/snippet.txt", "go"))
	assert.Equal(t, "regex", registry.StrategyFor("/workspace/snippet.txt", "python"))
	assert.Equal(t, "generic", registry.StrategyFor("/workspace/main.go", "generic"))
}

func TestExtractEmptyContent(t *testing.T) {
	registry := NewRegistry()

	res := registry.Extract("", "/workspace/empty.js", "")

	require.NotNil(t, res)
	assert.Equal(t, 1, res.Structural.Complexity)
	assert.Equal(t, 0, res.Relationships.Count())
}
