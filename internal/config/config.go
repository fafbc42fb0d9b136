// Package config loads server configuration from command-line flags and an
// optional YAML file. Flags set explicitly on the command line override file
// values.
package config

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all configurable values for the server.
type Config struct {
	// FilesystemRoot is the directory served by the "local" data source.
	FilesystemRoot string `yaml:"filesystemRoot"`
	// BlockstoreRoot is the directory served by the "docs" data source.
	// Empty disables the blockstore data source.
	BlockstoreRoot string `yaml:"blockstoreRoot"`
	// PrimaryDataSource is the data source used when a request names none.
	PrimaryDataSource   string `yaml:"primaryDataSource"`
	Transport           string `yaml:"transport"`
	Port                int    `yaml:"port"`
	MaxResourceSizeMB   int    `yaml:"maxResourceSizeMB"`
	MaxOperations       int    `yaml:"maxOperations"`
	OperationTimeoutSec int    `yaml:"operationTimeoutSec"`
}

func defaults() *Config {
	return &Config{
		PrimaryDataSource:   "local",
		Transport:           "http",
		Port:                8080,
		MaxResourceSizeMB:   10,
		MaxOperations:       100,
		OperationTimeoutSec: 30,
	}
}

// ParseFlags parses the command-line flags, loading the YAML file named by
// -config first so that explicit flags win over file values.
func ParseFlags() (*Config, error) {
	return parse(flag.CommandLine, os.Args[1:])
}

func parse(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := defaults()

	var configPath string
	fs.StringVar(&configPath, "config", "", "Path to a YAML configuration file")
	fs.StringVar(&cfg.FilesystemRoot, "fs-root", cfg.FilesystemRoot, "Root directory of the filesystem data source (required)")
	fs.StringVar(&cfg.BlockstoreRoot, "blockstore-root", cfg.BlockstoreRoot, "Root directory of the blockstore data source (empty disables it)")
	fs.StringVar(&cfg.PrimaryDataSource, "primary", cfg.PrimaryDataSource, "ID of the primary data source")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "Transport protocol (http or stdio)")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "Port for HTTP transport")
	fs.IntVar(&cfg.MaxResourceSizeMB, "max-resource-size", cfg.MaxResourceSizeMB, "Maximum resource size in MB")
	fs.IntVar(&cfg.MaxOperations, "max-operations", cfg.MaxOperations, "Maximum operations per edit batch")
	fs.IntVar(&cfg.OperationTimeoutSec, "timeout", cfg.OperationTimeoutSec, "Operation timeout in seconds")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if configPath != "" {
		fileCfg, err := loadFile(configPath)
		if err != nil {
			return nil, err
		}
		// Re-apply flags that were set explicitly so they override the file.
		merged := *fileCfg
		fs.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "fs-root":
				merged.FilesystemRoot = cfg.FilesystemRoot
			case "blockstore-root":
				merged.BlockstoreRoot = cfg.BlockstoreRoot
			case "primary":
				merged.PrimaryDataSource = cfg.PrimaryDataSource
			case "transport":
				merged.Transport = cfg.Transport
			case "port":
				merged.Port = cfg.Port
			case "max-resource-size":
				merged.MaxResourceSizeMB = cfg.MaxResourceSizeMB
			case "max-operations":
				merged.MaxOperations = cfg.MaxOperations
			case "timeout":
				merged.OperationTimeoutSec = cfg.OperationTimeoutSec
			}
		})
		cfg = &merged
	}
	return cfg, nil
}

// loadFile reads a YAML configuration file over the defaults.
func loadFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg := defaults()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks if the configuration values are valid.
func (c *Config) Validate() error {
	if c.FilesystemRoot == "" {
		return fmt.Errorf("filesystem root is required")
	}
	if err := checkDirectory("filesystem root", c.FilesystemRoot); err != nil {
		return err
	}
	if c.BlockstoreRoot != "" {
		if err := checkDirectory("blockstore root", c.BlockstoreRoot); err != nil {
			return err
		}
	}

	switch c.PrimaryDataSource {
	case "local":
	case "docs":
		if c.BlockstoreRoot == "" {
			return fmt.Errorf("primary data source 'docs' requires a blockstore root")
		}
	default:
		return fmt.Errorf("primary data source must be 'local' or 'docs'")
	}

	if c.Transport != "http" && c.Transport != "stdio" {
		return fmt.Errorf("transport must be 'http' or 'stdio'")
	}
	if c.Port < 1024 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1024 and 65535")
	}
	if c.MaxResourceSizeMB < 1 || c.MaxResourceSizeMB > 100 {
		return fmt.Errorf("max resource size must be between 1 and 100 MB")
	}
	if c.MaxOperations < 1 || c.MaxOperations > 1000 {
		return fmt.Errorf("max operations must be between 1 and 1000")
	}
	if c.OperationTimeoutSec < 5 || c.OperationTimeoutSec > 300 {
		return fmt.Errorf("operation timeout must be between 5 and 300 seconds")
	}
	return nil
}

func checkDirectory(label, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s does not exist: %s", label, path)
		}
		return fmt.Errorf("error accessing %s: %v", label, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory: %s", label, path)
	}
	return nil
}
