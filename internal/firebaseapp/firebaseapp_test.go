package firebaseapp

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_MissingCredentialsFile_ReturnsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "serviceAccountKey.json")

	_, err := New(context.Background(), path, "")
	if err == nil {
		t.Fatal("expected error for missing credentials file")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected fs.ErrNotExist, got %v", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("error should name the path %q, got %q", path, err.Error())
	}
}
