// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package summarize

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/pdiddy/paper-digest/internal/match"
)

const batchSystemPrompt = `You are a senior AI/ML researcher who explains academic papers in clear, accessible language. Your interpretations are concise, professional, and substantive.`

const overviewSystemPrompt = `You are a senior research analyst who distills research trends from sets of papers. Your summaries capture the big picture, point out shared themes, and offer practical takeaways for working researchers.`

var promptFuncs = template.FuncMap{
	"inc":  func(i int) int { return i + 1 },
	"join": strings.Join,
}

// batchPromptTmpl asks the model to interpret several papers in one
// call, separated by ===PAPER N=== markers so the response can be split
// back into per-paper sections.
var batchPromptTmpl = template.Must(template.New("batch").Funcs(promptFuncs).Parse(`Interpret each of the following {{len .Papers}} arXiv papers.

Reader's research interests: {{.Keywords}}
{{range $i, $p := .Papers}}
---
## Paper {{inc $i}}
**Title**: {{$p.Paper.Title}}
**Abstract**: {{$p.Paper.Summary}}
---
{{end}}
For each paper cover two aspects:

1. Background and challenge (roughly 300 words): what is the state of this area, and what problem does the paper address?

2. Method and findings (roughly 300 words): what does the paper propose, and what did it achieve?

Output format requirements:
- Separate papers with "===PAPER N===" where N is the paper number (1, 2, 3...)
- Each paper gets two paragraphs with a blank line between them
- No headings or bold, just the prose

Example:
===PAPER 1===
This area currently faces...

The paper proposes...
===PAPER 2===
...
`))

// overviewPromptTmpl asks for a short synthesis across the day's papers.
var overviewPromptTmpl = template.Must(template.New("overview").Funcs(promptFuncs).Parse(`Today {{.Count}} papers matching the reader's research interests were selected.

Reader's research interests: {{.Keywords}}

Today's papers:
{{range $i, $p := .Papers}}{{inc $i}}. "{{$p.Match.Paper.Title}}"
   matched keywords: {{join $p.Match.Detail.AllMatched ", "}}
{{end}}
In 200-300 words, summarize the day:
1. Which research directions do today's papers cluster around?
2. Are there notable trends or hot topics?
3. What should a researcher in this area take away?

Write the summary directly, professional but approachable.`))

func renderBatchPrompt(batch []match.Match, keywords []string) (string, error) {
	var buf bytes.Buffer
	err := batchPromptTmpl.Execute(&buf, struct {
		Papers   []match.Match
		Keywords string
	}{Papers: batch, Keywords: strings.Join(keywords, ", ")})
	return buf.String(), err
}

type overviewEntry struct {
	Match match.Match
}

func renderOverviewPrompt(matches []match.Match, keywords []string) (string, error) {
	shown := matches
	if len(shown) > 10 {
		shown = shown[:10]
	}
	entries := make([]overviewEntry, len(shown))
	for i, m := range shown {
		entries[i] = overviewEntry{Match: m}
	}

	var buf bytes.Buffer
	err := overviewPromptTmpl.Execute(&buf, struct {
		Count    int
		Keywords string
		Papers   []overviewEntry
	}{Count: len(matches), Keywords: strings.Join(keywords, ", "), Papers: entries})
	return buf.String(), err
}
