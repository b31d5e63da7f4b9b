package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"invreport/internal/logger"
)

// Directories never scanned: staging areas and previous dedup output.
var skipDirs = map[string]bool{
	"_tmp":       true,
	"quarantine": true,
	"duplicates": true,
}

// Duplicate pairs an extra copy with the canonical file it duplicates.
type Duplicate struct {
	Path      string
	Canonical string
	Hash      string
}

// HashFile returns the hex SHA-256 of the file contents.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", &DedupError{Op: "HashFile", Path: path, Err: err}
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", &DedupError{Op: "HashFile", Path: path, Err: err}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Scan walks root for PDFs and reports every file whose content hash was
// already seen, either earlier in this walk or in a previous run recorded in
// the index. Files are visited in lexical order, so the first path with a
// given hash is canonical. A nil index scans statelessly.
func Scan(root string, index *Index) ([]Duplicate, error) {
	log := logger.WithComponent("dedup")
	if _, err := os.Stat(root); err != nil {
		return nil, &DedupError{Op: "Scan", Path: root, Err: err}
	}

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".pdf") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, &DedupError{Op: "Scan", Path: root, Err: err}
	}
	sort.Strings(paths)

	seen := make(map[string]string)
	var duplicates []Duplicate
	for _, path := range paths {
		hash, err := HashFile(path)
		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("Skipping unreadable file")
			continue
		}
		if canonical, ok := seen[hash]; ok {
			duplicates = append(duplicates, Duplicate{Path: path, Canonical: canonical, Hash: hash})
			continue
		}
		if index != nil {
			entry, err := index.Seen(hash)
			if err != nil {
				return nil, err
			}
			if entry != nil && entry.Path != path {
				duplicates = append(duplicates, Duplicate{Path: path, Canonical: entry.Path, Hash: hash})
				seen[hash] = entry.Path
				continue
			}
			if err := index.Record(hash, path); err != nil {
				return nil, err
			}
		}
		seen[hash] = path
	}
	return duplicates, nil
}

// Apply moves the duplicate copies into destDir, renaming on collision with
// a numeric suffix so nothing is overwritten.
func Apply(duplicates []Duplicate, destDir string) error {
	log := logger.WithComponent("dedup")
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return &DedupError{Op: "Apply", Path: destDir, Err: err}
	}
	for _, dup := range duplicates {
		dest, err := ensureUnique(destDir, filepath.Base(dup.Path))
		if err != nil {
			return err
		}
		if err := os.Rename(dup.Path, dest); err != nil {
			return &DedupError{Op: "Apply", Path: dup.Path, Err: err}
		}
		log.Info().Str("from", dup.Path).Str("to", dest).Msg("Moved duplicate")
	}
	return nil
}

// ensureUnique returns a destination path that does not exist yet, appending
// "__2", "__3", ... to the stem on collision.
func ensureUnique(destDir, name string) (string, error) {
	candidate := filepath.Join(destDir, name)
	if _, err := os.Stat(candidate); os.IsNotExist(err) {
		return candidate, nil
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for counter := 2; ; counter++ {
		candidate = filepath.Join(destDir, fmt.Sprintf("%s__%d%s", stem, counter, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		}
	}
}
