package integration

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

// getCorpusDir returns the directory holding the scripts under test
func getCorpusDir() string {
	return getEnv("TEST_CORPUS_DIR", filepath.Join("..", "..", "foundation", "shell", "parser", "testdata"))
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// corpusFiles lists the corpus scripts, skipping the test when there are none
func corpusFiles(t *testing.T) []string {
	t.Helper()
	dir := getCorpusDir()
	files, err := filepath.Glob(filepath.Join(dir, "*.sh"))
	if err != nil {
		t.Fatalf("Failed to list corpus %s: %v", dir, err)
	}
	if len(files) == 0 {
		t.Skipf("Skipping: no scripts in %s", dir)
	}
	sort.Strings(files)
	return files
}

// readFile reads a corpus script
func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", path, err)
	}
	return string(data)
}

// copyCorpus copies the corpus into a scratch directory
func copyCorpus(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, f := range corpusFiles(t) {
		dst := filepath.Join(dir, filepath.Base(f))
		if err := os.WriteFile(dst, []byte(readFile(t, f)), 0644); err != nil {
			t.Fatalf("Failed to copy %s: %v", f, err)
		}
	}
	return dir
}
