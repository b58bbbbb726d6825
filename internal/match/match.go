// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package match ranks a paper collection against weighted keywords
// using a BM25-style scorer with a title boost and an overlap bonus.
package match

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// BM25 constants.
const (
	k1 = 1.5  // term-frequency saturation
	b  = 0.75 // document-length normalization

	// titleBoost multiplies the title-field score; a title match is a
	// stronger relevance signal than an abstract match.
	titleBoost = 3.0

	// overlapFactor scales the bonus for keywords matched in both
	// title and abstract.
	overlapFactor = 0.1
)

// ErrInvalidWeight reports a keyword weight that is not a positive
// finite number. Returned by the constructors before any paper is
// touched.
var ErrInvalidWeight = errors.New("keyword weight must be a positive finite number")

// Matcher scores papers against a fixed weighted keyword set. The
// keyword patterns are compiled once at construction and are read-only
// afterwards, so a Matcher may be shared across concurrent Score calls
// on disjoint collections.
type Matcher struct {
	weights  map[string]float64
	patterns map[string]*regexp.Regexp
}

// NewMatcher builds a Matcher from a keyword-to-weight map. Keywords
// are lowercased; matching is case-insensitive and on word boundaries
// only, so "rag" never matches inside "storage".
func NewMatcher(weights map[string]float64) (*Matcher, error) {
	m := &Matcher{
		weights:  make(map[string]float64, len(weights)),
		patterns: make(map[string]*regexp.Regexp, len(weights)),
	}
	for kw, w := range weights {
		if w <= 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("keyword %q: weight %v: %w", kw, w, ErrInvalidWeight)
		}
		key := strings.ToLower(kw)
		pat, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(key) + `\b`)
		if err != nil {
			return nil, fmt.Errorf("compiling pattern for keyword %q: %w", kw, err)
		}
		m.weights[key] = w
		m.patterns[key] = pat
	}
	return m, nil
}

// NewMatcherFromList builds a Matcher from plain terms, each with
// weight 1.0.
func NewMatcherFromList(terms []string) (*Matcher, error) {
	weights := make(map[string]float64, len(terms))
	for _, t := range terms {
		weights[strings.ToLower(t)] = 1.0
	}
	return NewMatcher(weights)
}

// Keywords returns the normalized keyword-to-weight map.
func (m *Matcher) Keywords() map[string]float64 {
	out := make(map[string]float64, len(m.weights))
	for k, w := range m.weights {
		out[k] = w
	}
	return out
}

// Match pairs a scored paper with the detail of which keywords matched it.
type Match struct {
	Paper  *types.Paper
	Detail types.MatchDetail
}

// corpusStats holds the per-call statistics needed for IDF. They are
// recomputed on every Score call because the collection changes daily;
// nothing here survives a scoring pass.
type corpusStats struct {
	docCount  int
	avgDocLen float64
	docFreq   map[string]int
}

// Score ranks the collection. It runs a statistics pass, then scores
// every paper, retains those with score >= threshold (setting
// Paper.RelevanceScore for them), sorts descending by score, and
// truncates to topK when topK > 0. Equal scores keep collection
// encounter order.
func (m *Matcher) Score(papers []*types.Paper, threshold float64, topK int) []Match {
	stats := m.buildStats(papers)

	var ranked []Match
	for _, p := range papers {
		score, detail := m.scorePaper(p, stats)
		if score >= threshold {
			p.RelevanceScore = score
			ranked = append(ranked, Match{Paper: p, Detail: detail})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Paper.RelevanceScore > ranked[j].Paper.RelevanceScore
	})

	if topK > 0 && len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked
}

// buildStats iterates the collection once, counting documents, the
// average token length of the combined title+summary field, and the
// number of documents each keyword appears in.
func (m *Matcher) buildStats(papers []*types.Paper) corpusStats {
	stats := corpusStats{
		docCount: len(papers),
		docFreq:  make(map[string]int, len(m.weights)),
	}

	totalLen := 0
	for _, p := range papers {
		text := strings.ToLower(p.Title + " " + p.Summary)
		totalLen += len(strings.Fields(text))
		for kw, pat := range m.patterns {
			if pat.MatchString(text) {
				stats.docFreq[kw]++
			}
		}
	}

	stats.avgDocLen = float64(totalLen) / float64(max(stats.docCount, 1))
	return stats
}

// idf is the BM25 inverse document frequency, floored at zero.
func (m *Matcher) idf(kw string, stats corpusStats) float64 {
	df := float64(stats.docFreq[kw])
	n := float64(stats.docCount)
	v := math.Log((n-df+0.5)/(df+0.5) + 1)
	return math.Max(v, 0)
}

// scoreField computes the weighted BM25 score of one field and the
// keywords that matched in it. docLen is the field's whitespace token
// count; the corpus average length is shared between title and
// abstract on purpose, matching the scoring the digest has always
// used.
func (m *Matcher) scoreField(text string, docLen int, stats corpusStats) (float64, []string) {
	score := 0.0
	var matched []string

	for kw, weight := range m.weights {
		tf := float64(len(m.patterns[kw].FindAllStringIndex(text, -1)))
		if tf == 0 {
			continue
		}
		matched = append(matched, kw)

		tfNorm := tf * (k1 + 1) / (tf + k1*(1-b+b*float64(docLen)/math.Max(stats.avgDocLen, 1)))
		score += m.idf(kw, stats) * tfNorm * weight
	}

	sort.Strings(matched)
	return score, matched
}

// scorePaper computes the final score and match detail for one paper.
func (m *Matcher) scorePaper(p *types.Paper, stats corpusStats) (float64, types.MatchDetail) {
	title := strings.ToLower(p.Title)
	abstract := strings.ToLower(p.Summary)

	titleScore, titleKeywords := m.scoreField(title, len(strings.Fields(title)), stats)
	titleScore *= titleBoost

	abstractScore, abstractKeywords := m.scoreField(abstract, len(strings.Fields(abstract)), stats)

	total := titleScore + abstractScore

	// Keywords reinforced in both fields multiply the combined score.
	overlapWeight := 0.0
	inTitle := make(map[string]bool, len(titleKeywords))
	for _, kw := range titleKeywords {
		inTitle[kw] = true
	}
	for _, kw := range abstractKeywords {
		if inTitle[kw] {
			overlapWeight += m.weights[kw]
		}
	}
	if overlapWeight > 0 {
		total *= 1 + overlapFactor*overlapWeight
	}

	detail := types.MatchDetail{
		TitleKeywords:    titleKeywords,
		AbstractKeywords: abstractKeywords,
		AllMatched:       union(titleKeywords, abstractKeywords),
		TitleScore:       titleScore,
		AbstractScore:    abstractScore,
		KeywordWeights:   make(map[string]float64),
	}
	for _, kw := range detail.AllMatched {
		detail.KeywordWeights[kw] = m.weights[kw]
	}

	return total, detail
}

// union merges two sorted keyword lists into a sorted, duplicate-free list.
func union(a, c []string) []string {
	seen := make(map[string]bool, len(a)+len(c))
	var out []string
	for _, s := range a {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, s := range c {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
