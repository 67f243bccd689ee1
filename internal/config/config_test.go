package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	cfg := Default()
	cfg.DefaultProfile = "work"
	cfg.Network.PollTimeout = Duration{250 * time.Millisecond}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.DefaultProfile != "work" {
		t.Errorf("DefaultProfile = %q, want %q", loaded.DefaultProfile, "work")
	}
	if loaded.Network.PollTimeout.Duration != 250*time.Millisecond {
		t.Errorf("PollTimeout = %v, want 250ms", loaded.Network.PollTimeout)
	}
	if loaded.UI.ChatLimit != 20 {
		t.Errorf("ChatLimit = %d, want 20", loaded.UI.ChatLimit)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("/nonexistent/config.toml")
	if err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestLoadOrDefaultMissing(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "none.toml"))
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if cfg.Protocol != "whatsapp" || cfg.Network.QueueSize != 256 {
		t.Errorf("got %+v, want defaults", cfg)
	}
}

func TestLoadOrDefaultPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := "default_profile = \"alt\"\n\n[ui]\nmax_chats = 5\ntick_interval = \"100ms\"\n"
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadOrDefault(path)
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if cfg.DefaultProfile != "alt" || cfg.UI.MaxChats != 5 {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.UI.TickInterval.Duration != 100*time.Millisecond {
		t.Errorf("TickInterval = %v, want 100ms", cfg.UI.TickInterval)
	}
	// Untouched keys keep their defaults.
	if cfg.UI.HistoryLimit != 30 || cfg.Network.PollTimeout.Duration != time.Second {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[network]\npoll_timeout = \"soon\"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadOrDefault(path); err == nil {
		t.Error("LoadOrDefault() expected error for bad duration")
	}
}

func TestSavePermissions(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	if err := Save(path, Default()); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	perm := info.Mode().Perm()
	if perm != 0600 {
		t.Errorf("file permission = %o, want 0600", perm)
	}
}

func TestFileStoreWritesThrough(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	s := NewFileStore(path, Default())

	if got := s.Credentials(); got.APIID != 0 || got.APIHash != "" {
		t.Fatalf("Credentials() = %+v, want empty", got)
	}
	if err := s.SetCredentials(42, "secret"); err != nil {
		t.Fatalf("SetCredentials() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Credentials.APIID != 42 || loaded.Credentials.APIHash != "secret" {
		t.Errorf("saved credentials = %+v", loaded.Credentials)
	}
}

func TestFileStoreRollsBackOnSaveError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0600); err != nil {
		t.Fatal(err)
	}
	// Parent is a regular file, so MkdirAll fails.
	s := NewFileStore(filepath.Join(blocker, "config.toml"), Default())

	if err := s.SetCredentials(1, "x"); err == nil {
		t.Fatal("SetCredentials() expected error")
	}
	if got := s.Credentials(); got.APIID != 0 {
		t.Errorf("Credentials() = %+v after failed save, want empty", got)
	}
}
