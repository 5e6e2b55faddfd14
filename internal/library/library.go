// Package library discovers fillable documents in the configured document
// directory.
package library

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileInfo describes one discovered document.
type FileInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

// Result holds the outcome of a directory scan.
type Result struct {
	Files      []FileInfo `json:"files"`
	TotalCount int        `json:"total_count"`
	Directory  string     `json:"directory"`
	Query      string     `json:"query,omitempty"`
}

// Library scans directories for loadable PDF documents.
type Library struct {
	maxFileSize int64
}

// New creates a library with the given file size limit. Files over the
// limit are skipped rather than reported.
func New(maxFileSize int64) *Library {
	return &Library{maxFileSize: maxFileSize}
}

// Scan walks the directory and returns the PDF documents in it, optionally
// filtered by a fuzzy query against the file name. Hidden directories are
// skipped.
func (l *Library) Scan(directory, query string) (*Result, error) {
	if directory == "" {
		return nil, fmt.Errorf("directory cannot be empty")
	}
	absDirectory, err := filepath.Abs(directory)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory path: %w", err)
	}
	if _, err := os.Stat(absDirectory); err != nil {
		return nil, fmt.Errorf("cannot access directory: %w", err)
	}

	query = strings.ToLower(strings.TrimSpace(query))

	var files []FileInfo
	err = filepath.WalkDir(absDirectory, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries, keep walking
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != absDirectory {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), ".pdf") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Size() == 0 || info.Size() > l.maxFileSize {
			return nil
		}
		if !matches(d.Name(), query) {
			return nil
		}
		files = append(files, FileInfo{
			Path:         path,
			Name:         d.Name(),
			Size:         info.Size(),
			ModifiedTime: info.ModTime().Format("2006-01-02 15:04:05"),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking directory: %w", err)
	}

	return &Result{
		Files:      files,
		TotalCount: len(files),
		Directory:  absDirectory,
		Query:      query,
	}, nil
}

// matches performs fuzzy matching of the query against the file name. A
// query matches when it is a substring, or when every query word appears in
// some word of the name.
func matches(filename, query string) bool {
	if query == "" {
		return true
	}

	name := strings.TrimSuffix(strings.ToLower(filename), ".pdf")
	if strings.Contains(name, query) {
		return true
	}

	nameWords := splitWords(name)
	for _, queryWord := range splitWords(query) {
		found := false
		for _, word := range nameWords {
			if strings.Contains(word, queryWord) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func splitWords(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		switch r {
		case ' ', '_', '-', '.', '(', ')', '[', ']':
			return true
		}
		return false
	})
}
