package config

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func parseArgs(t *testing.T, args ...string) *Config {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := parse(fs, args)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return cfg
}

func TestParseDefaults(t *testing.T) {
	cfg := parseArgs(t)
	if cfg.Transport != "http" || cfg.Port != 8080 {
		t.Errorf("transport defaults: %+v", cfg)
	}
	if cfg.MaxResourceSizeMB != 10 || cfg.MaxOperations != 100 || cfg.OperationTimeoutSec != 30 {
		t.Errorf("limit defaults: %+v", cfg)
	}
	if cfg.PrimaryDataSource != "local" {
		t.Errorf("primary default: %q", cfg.PrimaryDataSource)
	}
}

func TestParseFlagsOverrideDefaults(t *testing.T) {
	cfg := parseArgs(t, "-fs-root", "/srv/data", "-transport", "stdio", "-max-operations", "5")
	if cfg.FilesystemRoot != "/srv/data" || cfg.Transport != "stdio" || cfg.MaxOperations != 5 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestParseConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "filesystemRoot: /srv/data\nblockstoreRoot: /srv/docs\ntransport: stdio\nport: 9000\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := parseArgs(t, "-config", path)
	if cfg.FilesystemRoot != "/srv/data" || cfg.BlockstoreRoot != "/srv/docs" {
		t.Errorf("roots: %+v", cfg)
	}
	if cfg.Transport != "stdio" || cfg.Port != 9000 {
		t.Errorf("transport: %+v", cfg)
	}
	// Values the file does not set keep their defaults.
	if cfg.MaxOperations != 100 {
		t.Errorf("maxOperations = %d", cfg.MaxOperations)
	}
}

func TestParseExplicitFlagsWinOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("filesystemRoot: /from/file\nport: 9000\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := parseArgs(t, "-config", path, "-port", "9999")
	if cfg.Port != 9999 {
		t.Errorf("explicit flag should win: port = %d", cfg.Port)
	}
	if cfg.FilesystemRoot != "/from/file" {
		t.Errorf("file value should survive: %q", cfg.FilesystemRoot)
	}
}

func TestParseMissingConfigFile(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	if _, err := parse(fs, []string{"-config", "/does/not/exist.yaml"}); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	root := t.TempDir()

	valid := func() *Config {
		cfg := defaults()
		cfg.FilesystemRoot = root
		return cfg
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing root", func(c *Config) { c.FilesystemRoot = "" }, "filesystem root is required"},
		{"root does not exist", func(c *Config) { c.FilesystemRoot = "/no/such/dir" }, "does not exist"},
		{"bad transport", func(c *Config) { c.Transport = "grpc" }, "transport must be"},
		{"port too low", func(c *Config) { c.Port = 80 }, "port must be between"},
		{"port too high", func(c *Config) { c.Port = 70000 }, "port must be between"},
		{"size too small", func(c *Config) { c.MaxResourceSizeMB = 0 }, "max resource size"},
		{"size too large", func(c *Config) { c.MaxResourceSizeMB = 101 }, "max resource size"},
		{"operations too small", func(c *Config) { c.MaxOperations = 0 }, "max operations"},
		{"operations too large", func(c *Config) { c.MaxOperations = 1001 }, "max operations"},
		{"timeout too small", func(c *Config) { c.OperationTimeoutSec = 1 }, "operation timeout"},
		{"bad primary", func(c *Config) { c.PrimaryDataSource = "cloud" }, "primary data source"},
		{"docs primary without blockstore", func(c *Config) { c.PrimaryDataSource = "docs" }, "requires a blockstore root"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error = %q, want substring %q", err, tc.want)
			}
		})
	}
}

func TestValidateBlockstoreRoot(t *testing.T) {
	cfg := defaults()
	cfg.FilesystemRoot = t.TempDir()
	cfg.BlockstoreRoot = "/no/such/dir"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "blockstore root") {
		t.Errorf("error = %v", err)
	}

	cfg.BlockstoreRoot = t.TempDir()
	cfg.PrimaryDataSource = "docs"
	if err := cfg.Validate(); err != nil {
		t.Errorf("docs primary with blockstore root should validate: %v", err)
	}
}
