// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package papers loads crawled paper collections from JSONL storage.
package papers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pdiddy/paper-digest/pkg/types"
)

const (
	jsonlDir  = "jsonl"
	jsonlFile = "papers.jsonl"
)

// Load reads every category's papers.jsonl under dataDir/jsonl/ and
// returns the deduplicated collection. A missing jsonl/ directory is
// "nothing crawled yet" and yields an empty collection, not an error.
// Malformed lines are skipped with a diagnostic on w. Duplicate IDs
// keep the first occurrence; scoring statistics would be corrupted by
// a paper counted twice.
func Load(dataDir string, w io.Writer) ([]*types.Paper, error) {
	root := filepath.Join(dataDir, jsonlDir)

	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading data directory %s: %w", root, err)
	}

	var all []*types.Paper
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(root, entry.Name(), jsonlFile)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		loaded, err := LoadFile(path, w)
		if err != nil {
			return nil, err
		}
		all = append(all, loaded...)
	}

	seen := make(map[string]bool, len(all))
	var unique []*types.Paper
	for _, p := range all {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		unique = append(unique, p)
	}
	return unique, nil
}

// LoadFile reads one JSONL file of paper records. Blank lines are
// ignored; lines that fail to parse or lack an id are skipped with a
// diagnostic on w.
func LoadFile(path string, w io.Writer) ([]*types.Paper, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var loaded []*types.Paper
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var p types.Paper
		if err := json.Unmarshal(line, &p); err != nil {
			fmt.Fprintf(w, "skipped %s:%d: %v\n", filepath.Base(path), lineNo, err)
			continue
		}
		if p.ID == "" {
			fmt.Fprintf(w, "skipped %s:%d: record has no id\n", filepath.Base(path), lineNo)
			continue
		}
		loaded = append(loaded, &p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return loaded, nil
}
