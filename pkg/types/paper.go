// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the paper-digest pipeline.
package types

// Paper holds the metadata for one announced paper as written by the
// crawl stage. The JSON tags match the fields of the per-category
// papers.jsonl records.
type Paper struct {
	// ID is the paper identifier (e.g. "2301.07041"), unique within a
	// loaded collection.
	ID string `json:"id" yaml:"id"`

	// Title is the paper title.
	Title string `json:"title" yaml:"title"`

	// Summary is the paper abstract.
	Summary string `json:"summary" yaml:"summary"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Categories lists the arXiv categories, primary first.
	Categories []string `json:"categories" yaml:"categories"`

	// PDFURL is the PDF download URL.
	PDFURL string `json:"pdf" yaml:"pdf"`

	// AbsURL is the abstract page URL.
	AbsURL string `json:"abs" yaml:"abs"`

	// Comment is the optional author comment.
	Comment string `json:"comment,omitempty" yaml:"comment,omitempty"`

	// RelevanceScore is set by the match stage for papers that pass
	// the threshold. Zero until then; never written back to the crawl
	// output.
	RelevanceScore float64 `json:"relevance_score,omitempty" yaml:"relevance_score,omitempty"`
}

// MatchDetail records which keywords matched a paper and where. It is
// produced alongside the relevance score and is read-only afterwards.
type MatchDetail struct {
	// TitleKeywords are the keywords matched in the title.
	TitleKeywords []string `json:"title_keywords" yaml:"title_keywords"`

	// AbstractKeywords are the keywords matched in the abstract.
	AbstractKeywords []string `json:"abstract_keywords" yaml:"abstract_keywords"`

	// AllMatched is the sorted union of title and abstract matches.
	AllMatched []string `json:"all_matched" yaml:"all_matched"`

	// TitleScore is the title-field score after the title boost.
	TitleScore float64 `json:"title_score" yaml:"title_score"`

	// AbstractScore is the abstract-field score.
	AbstractScore float64 `json:"abstract_score" yaml:"abstract_score"`

	// KeywordWeights maps each matched keyword to its configured weight.
	KeywordWeights map[string]float64 `json:"keyword_weights" yaml:"keyword_weights"`
}
