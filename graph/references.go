package graph

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"github.com/poiesic/normgraph/core"
	"github.com/xrash/smetrics"
)

// citationPatterns recognize an issuing-body tag followed by a numeric
// designator with optional hyphenated parts: EN 50174-2, BS EN 50173-1,
// IEC 60050-151, ISO 9001, IEEE 802-3. Order is fixed.
var citationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bBS\s+EN\s+\d+(?:-\d+)*`),
	regexp.MustCompile(`(?i)\bEN\s+\d+(?:-\d+)*`),
	regexp.MustCompile(`(?i)\bIEC\s+\d+(?:-\d+)*`),
	regexp.MustCompile(`(?i)\bISO\s+\d+(?:-\d+)*`),
	regexp.MustCompile(`(?i)\bIEEE\s+\d+(?:-\d+)*`),
}

// NormalizeReference strips whitespace, underscores and colons and upper-cases
// the rest, so "EN 50174-2", "en_50174-2" and "EN:50174-2" compare equal.
func NormalizeReference(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '_' || r == ':' {
			return -1
		}
		return unicode.ToUpper(r)
	}, s)
}

// ExtractCitations returns the distinct normalized citations found in text,
// in pattern order and then order of appearance. A match lying inside the
// span of an earlier match is part of that citation and is skipped, so
// "BS EN 50174-2" yields one citation, not also "EN 50174-2".
func ExtractCitations(text string) []string {
	seen := make(map[string]bool)
	var citations []string
	var spans [][]int

	for _, p := range citationPatterns {
		for _, loc := range p.FindAllStringIndex(text, -1) {
			if within(spans, loc) {
				continue
			}
			spans = append(spans, loc)

			norm := NormalizeReference(text[loc[0]:loc[1]])
			if norm == "" || seen[norm] {
				continue
			}
			seen[norm] = true
			citations = append(citations, norm)
		}
	}
	return citations
}

func within(spans [][]int, loc []int) bool {
	for _, span := range spans {
		if loc[0] >= span[0] && loc[1] <= span[1] {
			return true
		}
	}
	return false
}

// Matcher decides whether a normalized citation refers to a normalized
// document id.
type Matcher interface {
	Match(citation, document string) bool
}

// ContainmentMatcher accepts a citation when either string contains the other.
// Short document ids can produce false positives; ExactMatcher and
// EditDistanceMatcher are stricter.
type ContainmentMatcher struct{}

func (ContainmentMatcher) Match(citation, document string) bool {
	return strings.Contains(document, citation) || strings.Contains(citation, document)
}

// ExactMatcher accepts a citation only when it equals the document id.
type ExactMatcher struct{}

func (ExactMatcher) Match(citation, document string) bool {
	return citation == document
}

// EditDistanceMatcher accepts a citation within MaxDistance single-character
// edits (Levenshtein) of the document id.
type EditDistanceMatcher struct {
	MaxDistance int
}

func (m EditDistanceMatcher) Match(citation, document string) bool {
	return smetrics.WagnerFischer(citation, document, 1, 1, 1) <= m.MaxDistance
}

// Matcher names accepted by MatcherByName.
const (
	MatcherContainment  = "containment"
	MatcherExact        = "exact"
	MatcherEditDistance = "edit"
)

// MatcherByName returns the matcher registered under name.
// maxDistance is used only by the edit distance matcher.
func MatcherByName(name string, maxDistance int) (Matcher, error) {
	switch strings.ToLower(name) {
	case "", MatcherContainment:
		return ContainmentMatcher{}, nil
	case MatcherExact:
		return ExactMatcher{}, nil
	case MatcherEditDistance:
		if maxDistance < 0 {
			return nil, fmt.Errorf("%w: negative edit distance %d", ErrUnknownMatcher, maxDistance)
		}
		return EditDistanceMatcher{MaxDistance: maxDistance}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMatcher, name)
	}
}

// ReferenceStats counts the outcome of cross-reference detection.
type ReferenceStats struct {
	// Citations is the number of distinct citations found across all clauses.
	Citations int
	// Edges is the number of REFERENCES edges emitted.
	Edges int
	// Unmatched counts citations that matched no document in the corpus.
	Unmatched int
}

// DetectReferences emits REFERENCES edges from clauses to the Standard nodes
// of the documents they cite. Each distinct citation of a clause is compared
// against every document id in document order; every accepted document gets
// one edge.
func DetectReferences(ctx context.Context, g *Graph, matcher Matcher, logger *slog.Logger) (ReferenceStats, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if matcher == nil {
		matcher = ContainmentMatcher{}
	}
	var stats ReferenceStats

	type target struct {
		normalized string
		standardID string
	}
	targets := make([]target, 0, len(g.documents))
	for _, doc := range g.documents {
		standardID, _ := g.StandardFor(doc)
		targets = append(targets, target{normalized: NormalizeReference(doc), standardID: standardID})
	}

	for _, clause := range g.clauses {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		for _, citation := range ExtractCitations(clause.FullText) {
			stats.Citations++
			matched := false
			for _, t := range targets {
				if !matcher.Match(citation, t.normalized) {
					continue
				}
				if err := g.AddEdge(clause.ID, t.standardID, core.RelReferences); err != nil {
					return stats, err
				}
				matched = true
				stats.Edges++
			}
			if !matched {
				stats.Unmatched++
				logger.Debug("citation matches no document in corpus",
					"clause", clause.ID, "citation", citation)
			}
		}
	}

	logger.Info("created cross-reference edges",
		"edges", stats.Edges, "citations", stats.Citations, "unmatched", stats.Unmatched)
	return stats, nil
}
