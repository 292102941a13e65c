package scanner

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// HeaderExtensions are the file extensions treated as C++ headers.
var HeaderExtensions = []string{".h", ".hh", ".hpp", ".hxx", ".h++"}

// Scanner recursively finds C++ headers in directories
type Scanner struct {
	Excludes []string
}

// NewScanner creates a new file scanner with exclusion patterns
func NewScanner(excludes []string) *Scanner {
	return &Scanner{Excludes: excludes}
}

// ScanPath scans a file or directory for headers. A file named explicitly is
// returned whatever its extension.
func (s *Scanner) ScanPath(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(filePath string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // Skip files/dirs with errors
		}

		// Excludes match below the scanned root only
		rel, err := filepath.Rel(path, filePath)
		if err != nil {
			rel = filePath
		}
		if d.IsDir() {
			if filePath != path && s.shouldExclude(rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if IsHeader(filePath) && !s.shouldExclude(rel) {
			files = append(files, filePath)
		}
		return nil
	})

	return files, err
}

// ScanPaths scans multiple paths for headers, dropping duplicates. Files of
// one directory come back in lexical order and paths keep their given order.
func (s *Scanner) ScanPaths(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]bool)

	for _, path := range paths {
		files, err := s.ScanPath(path)
		if err != nil {
			return nil, err
		}

		for _, f := range files {
			absPath, err := filepath.Abs(f)
			if err != nil {
				absPath = f
			}
			if !seen[absPath] {
				seen[absPath] = true
				allFiles = append(allFiles, absPath)
			}
		}
	}

	return allFiles, nil
}

// IsHeader reports whether path has a C++ header extension.
func IsHeader(path string) bool {
	return slices.Contains(HeaderExtensions, strings.ToLower(filepath.Ext(path)))
}

func (s *Scanner) shouldExclude(path string) bool {
	sep := string(filepath.Separator)
	for _, exclude := range s.Excludes {
		if exclude == "" {
			continue
		}
		// Match against directory name or path component
		if filepath.Base(path) == exclude {
			return true
		}
		if strings.HasPrefix(path, exclude+sep) || strings.Contains(path, sep+exclude+sep) || strings.HasSuffix(path, sep+exclude) {
			return true
		}
		if ok, _ := filepath.Match(exclude, filepath.Base(path)); ok {
			return true
		}
	}
	return false
}
