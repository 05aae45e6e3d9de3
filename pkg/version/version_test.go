package version

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetVersionFallback(t *testing.T) {
	got := GetVersion()
	if got == "" {
		t.Fatalf("expected a non-empty version")
	}
}

func TestGetVersionPrefersVersionFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "VERSION"), []byte("v9.9.9-test\n"), 0o644); err != nil {
		t.Fatalf("failed to write VERSION file: %v", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("failed to chdir: %v", err)
	}
	defer os.Chdir(wd)

	if got := GetVersion(); got != "v9.9.9-test" {
		t.Fatalf("expected VERSION file contents, got %q", got)
	}
}
