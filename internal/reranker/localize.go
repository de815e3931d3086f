package reranker

import (
	"regexp"
	"sort"
	"strings"

	"github.com/mdevan/debias-mcp/pkg/types"
)

const (
	regionScoreThreshold = 0.3
	maxRegions           = 3
)

var definitionLine = regexp.MustCompile(`^\s*(?:export\s+)?(?:async\s+)?(?:func|function|def|class|fn|type|const|var|let)\s+([A-Za-z_$][A-Za-z0-9_$]*)`)

// Localize finds definition-led blocks in content whose token overlap with
// the query passes the score threshold. Blocks are delimited by the next
// non-empty line at or below the definition's indentation. At most
// maxRegions regions are returned, highest score first.
func Localize(content string, queryTokens []string) []types.CodeRegion {
	if len(queryTokens) == 0 || content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")

	var regions []types.CodeRegion
	for i := 0; i < len(lines); i++ {
		m := definitionLine.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}
		end := blockEnd(lines, i)
		block := strings.Join(lines[i:end+1], "\n")
		score := overlapScore(block, queryTokens)
		if score > regionScoreThreshold {
			regions = append(regions, types.CodeRegion{
				Name:      m[1],
				StartLine: i + 1,
				EndLine:   end + 1,
				Content:   block,
				Score:     score,
			})
		}
	}

	sort.SliceStable(regions, func(a, b int) bool {
		return regions[a].Score > regions[b].Score
	})
	if len(regions) > maxRegions {
		regions = regions[:maxRegions]
	}
	return regions
}

// blockEnd returns the index of the last line belonging to the block that
// starts at the definition on line start.
func blockEnd(lines []string, start int) int {
	base := indentWidth(lines[start])
	last := start
	for i := start + 1; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			continue
		}
		ind := indentWidth(lines[i])
		if ind < base {
			break
		}
		if ind == base {
			// a closing brace at the definition's indent closes the block
			if trimmed == "}" || strings.HasPrefix(trimmed, "}") {
				return i
			}
			break
		}
		last = i
	}
	return last
}

func indentWidth(line string) int {
	width := 0
	for _, r := range line {
		switch r {
		case ' ':
			width++
		case '\t':
			width += 4
		default:
			return width
		}
	}
	return width
}

// overlapScore is the fraction of query tokens present in the block.
func overlapScore(block string, queryTokens []string) float64 {
	lower := strings.ToLower(block)
	matched := 0
	for _, tok := range queryTokens {
		if strings.Contains(lower, tok) {
			matched++
		}
	}
	return float64(matched) / float64(len(queryTokens))
}
