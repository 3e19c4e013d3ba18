package graph

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/poiesic/normgraph/core"
)

// Stop words removed before comparing clause texts.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "from": true, "is": true, "are": true, "was": true,
	"were": true, "be": true, "been": true, "being": true, "have": true,
	"has": true, "had": true,
}

// TokenSet is the set of distinct words of a text.
type TokenSet map[string]struct{}

// Tokenize lower-cases text, splits it on whitespace and drops stop words.
func Tokenize(text string) TokenSet {
	words := strings.Fields(strings.ToLower(text))
	set := make(TokenSet, len(words))
	for _, w := range words {
		if stopWords[w] {
			continue
		}
		set[w] = struct{}{}
	}
	return set
}

// Jaccard returns |a ∩ b| / |a ∪ b|, or 0 when either set is empty.
func Jaccard(a, b TokenSet) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(a) > len(b) {
		a, b = b, a
	}
	intersection := 0
	for w := range a {
		if _, ok := b[w]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

// Similarity returns the Jaccard coefficient of two texts' token sets.
func Similarity(text1, text2 string) float64 {
	return Jaccard(Tokenize(text1), Tokenize(text2))
}

// SimilarityPolicy selects which qualifying pairs are kept when more than
// MaxLinks pairs reach the threshold.
type SimilarityPolicy string

const (
	// PolicyPrefix enumerates pairs in traversal order and stops at the
	// MaxLinks-th accepted pair. The kept set is a prefix of the traversal,
	// not the best-scoring pairs.
	PolicyPrefix SimilarityPolicy = "prefix"

	// PolicyRanked scores every eligible pair, sorts by score descending
	// (ties in traversal order) and keeps the first MaxLinks.
	PolicyRanked SimilarityPolicy = "ranked"
)

// ParsePolicy converts a policy name into a SimilarityPolicy.
func ParsePolicy(name string) (SimilarityPolicy, error) {
	switch SimilarityPolicy(strings.ToLower(name)) {
	case "", PolicyPrefix:
		return PolicyPrefix, nil
	case PolicyRanked:
		return PolicyRanked, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
}

// Executor runs tasks, possibly concurrently. *ants.Pool satisfies it.
type Executor interface {
	Submit(task func()) error
}

// Progress receives the number of outer-loop rows completed.
type Progress interface {
	Increment(delta int)
}

// SimilarityOptions configures DetectSimilarities.
type SimilarityOptions struct {
	// Threshold is the minimum Jaccard score for a SIMILAR_TO edge, in (0, 1].
	Threshold float64
	// MaxLinks caps the number of SIMILAR_TO edges. Zero or less emits none.
	MaxLinks int
	// Policy selects prefix or ranked capping.
	Policy SimilarityPolicy
	// Executor runs ranked scoring rows. Nil scores inline.
	Executor Executor
	// Progress, if set, is advanced once per outer-loop row.
	Progress Progress
}

// DefaultSimilarityOptions returns the options used by the standard build.
func DefaultSimilarityOptions() SimilarityOptions {
	return SimilarityOptions{
		Threshold: 0.3,
		MaxLinks:  200,
		Policy:    PolicyPrefix,
	}
}

// SimilarityStats counts the outcome of similarity detection.
type SimilarityStats struct {
	Comparisons int
	Qualifying  int
	Edges       int
}

// scoredPair is a qualifying pair identified by traversal position.
type scoredPair struct {
	i, j  int
	score float64
}

// DetectSimilarities emits SIMILAR_TO edges between clauses of different
// documents whose texts reach the threshold.
//
// Pairs are traversed with the outer loop over clauses in load order and the
// inner loop over the clauses after it; same-document pairs and pairs with an
// empty text are skipped. Each pair is compared once, so the edge always runs
// from the earlier clause to the later one.
func DetectSimilarities(ctx context.Context, g *Graph, opts SimilarityOptions, logger *slog.Logger) (SimilarityStats, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Threshold <= 0 || opts.Threshold > 1 {
		return SimilarityStats{}, fmt.Errorf("%w: %v", ErrInvalidThreshold, opts.Threshold)
	}

	clauses := g.clauses
	tokens := make([]TokenSet, len(clauses))
	for i, c := range clauses {
		if c.FullText != "" {
			tokens[i] = Tokenize(c.FullText)
		}
	}

	logger.Info("analyzing clauses for similarities",
		"clauses", len(clauses), "threshold", opts.Threshold, "max_links", opts.MaxLinks, "policy", opts.Policy)

	var (
		stats SimilarityStats
		pairs []scoredPair
		err   error
	)
	switch opts.Policy {
	case "", PolicyPrefix:
		pairs, stats, err = scanPrefix(ctx, clauses, tokens, opts, logger)
	case PolicyRanked:
		pairs, stats, err = scanRanked(ctx, clauses, tokens, opts)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownPolicy, opts.Policy)
	}
	if err != nil {
		return stats, err
	}

	for _, p := range pairs {
		if err := g.AddEdge(clauses[p.i].ID, clauses[p.j].ID, core.RelSimilarTo); err != nil {
			return stats, err
		}
	}
	stats.Edges = len(pairs)

	logger.Info("created similarity edges",
		"edges", stats.Edges, "qualifying", stats.Qualifying, "comparisons", stats.Comparisons)
	return stats, nil
}

// eligible reports whether clauses i and j may be compared.
func eligible(clauses []*core.Node, i, j int) bool {
	return clauses[i].DocumentID != clauses[j].DocumentID &&
		clauses[i].FullText != "" && clauses[j].FullText != ""
}

func scanPrefix(ctx context.Context, clauses []*core.Node, tokens []TokenSet, opts SimilarityOptions, logger *slog.Logger) ([]scoredPair, SimilarityStats, error) {
	var (
		stats SimilarityStats
		pairs []scoredPair
	)
	if opts.MaxLinks <= 0 {
		return nil, stats, nil
	}

	for i := range clauses {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		for j := i + 1; j < len(clauses); j++ {
			if !eligible(clauses, i, j) {
				continue
			}
			stats.Comparisons++
			score := Jaccard(tokens[i], tokens[j])
			if score < opts.Threshold {
				continue
			}
			stats.Qualifying++
			pairs = append(pairs, scoredPair{i: i, j: j, score: score})
			if len(pairs)%10 == 0 {
				logger.Info("found similar clause pairs", "count", len(pairs))
			}
			if len(pairs) >= opts.MaxLinks {
				if opts.Progress != nil {
					opts.Progress.Increment(len(clauses) - i)
				}
				return pairs, stats, nil
			}
		}
		if opts.Progress != nil {
			opts.Progress.Increment(1)
		}
	}
	return pairs, stats, nil
}

func scanRanked(ctx context.Context, clauses []*core.Node, tokens []TokenSet, opts SimilarityOptions) ([]scoredPair, SimilarityStats, error) {
	var stats SimilarityStats
	if opts.MaxLinks <= 0 {
		return nil, stats, nil
	}

	rows := make([][]scoredPair, len(clauses))
	comparisons := make([]int, len(clauses))

	scoreRow := func(i int) {
		if ctx.Err() != nil {
			return
		}
		for j := i + 1; j < len(clauses); j++ {
			if !eligible(clauses, i, j) {
				continue
			}
			comparisons[i]++
			if score := Jaccard(tokens[i], tokens[j]); score >= opts.Threshold {
				rows[i] = append(rows[i], scoredPair{i: i, j: j, score: score})
			}
		}
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		submitErr error
	)
	for i := range clauses {
		if opts.Executor == nil {
			scoreRow(i)
			if opts.Progress != nil {
				opts.Progress.Increment(1)
			}
			continue
		}

		wg.Add(1)
		row := i
		err := opts.Executor.Submit(func() {
			defer wg.Done()
			scoreRow(row)
			if opts.Progress != nil {
				opts.Progress.Increment(1)
			}
		})
		if err != nil {
			wg.Done()
			mu.Lock()
			submitErr = err
			mu.Unlock()
			break
		}
	}
	wg.Wait()

	if submitErr != nil {
		return nil, stats, fmt.Errorf("scheduling similarity scoring: %w", submitErr)
	}
	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}

	var pairs []scoredPair
	for i, row := range rows {
		stats.Comparisons += comparisons[i]
		pairs = append(pairs, row...)
	}
	stats.Qualifying = len(pairs)

	// Stable sort keeps traversal order among equal scores.
	slices.SortStableFunc(pairs, func(a, b scoredPair) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		default:
			return 0
		}
	})
	if len(pairs) > opts.MaxLinks {
		pairs = pairs[:opts.MaxLinks]
	}
	return pairs, stats, nil
}
