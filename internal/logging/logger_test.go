package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNoOpWithoutInitialize(t *testing.T) {
	// Reset package state.
	if err := Initialize("", false); err != nil {
		t.Fatal(err)
	}
	defer CloseAll()

	// Must not panic or create files.
	Auth("no-op %d", 1)
	APIDebug("no-op")
	CacheWarn("no-op")
}

func TestInitializeAndLog(t *testing.T) {
	dir := t.TempDir()
	if err := Initialize(dir, true); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer func() {
		CloseAll()
		Initialize("", false)
	}()

	Auth("hello %s", "world")
	Get(CategoryAPI).Error("something failed")

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var sawAuth, sawAPI bool
	for _, e := range entries {
		if strings.Contains(e.Name(), "_auth.log") {
			sawAuth = true
			data, _ := os.ReadFile(filepath.Join(dir, e.Name()))
			if !strings.Contains(string(data), "hello world") {
				t.Errorf("auth log missing message: %s", data)
			}
		}
		if strings.Contains(e.Name(), "_api.log") {
			sawAPI = true
		}
	}
	if !sawAuth || !sawAPI {
		t.Errorf("Expected auth and api log files, saw %v", entries)
	}
}

func TestRequestLogger(t *testing.T) {
	dir := t.TempDir()
	if err := Initialize(dir, true); err != nil {
		t.Fatal(err)
	}
	defer func() {
		CloseAll()
		Initialize("", false)
	}()

	rl := WithRequestID(CategoryAPI, "abc123")
	rl.Info("send completed")

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.Contains(e.Name(), "_api.log") {
			data, _ := os.ReadFile(filepath.Join(dir, e.Name()))
			if !strings.Contains(string(data), "[req:abc123]") {
				t.Errorf("Expected correlation id in log, got %s", data)
			}
			return
		}
	}
	t.Error("api log file not found")
}
