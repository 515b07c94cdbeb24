package ingest

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Document is a raw ingested page: where it came from on disk, its text and
// the canonical URL derived from its location under the docs root. Documents
// exist only for the duration of an ingestion run; chunks are what persist.
type Document struct {
	SourcePath string
	Content    string
	URL        string
}

// Loader walks a docs tree and reads the canonical page of each folder.
// Only index documents contribute to the corpus; sibling pages of the same
// folder are near-duplicates of the index and would pollute retrieval.
type Loader struct {
	root string
}

func NewLoader(root string) *Loader {
	return &Loader{root: root}
}

func isIndexDocument(name string) bool {
	return name == "index.mdx" || name == "index.md"
}

// Load returns every readable index document under the root. Unreadable
// files are skipped with a warning; only a missing root is fatal.
func (l *Loader) Load() ([]Document, []string, error) {
	if _, err := os.Stat(l.root); err != nil {
		return nil, nil, fmt.Errorf("docs root %s: %w", l.root, err)
	}

	var docs []Document
	var warnings []string

	err := filepath.WalkDir(l.root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			warnings = append(warnings, fmt.Sprintf("skipping %s: %v", path, walkErr))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !isIndexDocument(d.Name()) {
			return nil
		}

		content, err := os.ReadFile(path) // #nosec G304 -- path comes from walking the configured docs root
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("skipping %s: %v", path, err))
			return nil
		}

		docs = append(docs, Document{
			SourcePath: path,
			Content:    string(content),
			URL:        l.canonicalURL(path),
		})
		return nil
	})
	if err != nil {
		return nil, warnings, err
	}

	slog.Info("loaded documents", "root", l.root, "count", len(docs), "warnings", len(warnings))
	return docs, warnings, nil
}

// canonicalURL maps a file path to the page path it is served under:
// <root>/getting-started/index.mdx -> /getting-started. The root's own
// index document maps to "/".
func (l *Loader) canonicalURL(path string) string {
	rel, err := filepath.Rel(l.root, path)
	if err != nil {
		return "/"
	}
	dir := filepath.ToSlash(filepath.Dir(rel))
	if dir == "." || dir == "" {
		return "/"
	}
	return "/" + strings.Trim(dir, "/")
}
