package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FileSystem abstracts the file checks the loader performs, so resolution
// logic can be tested without touching the real working directory.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

type osFileSystem struct{}

func (osFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (osFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// LoaderConfig holds the loader's dependencies and optional file overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string
	EnvFile    string
}

// LoaderOption is a functional option for LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path, skipping the search.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path, skipping the search.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// LoadConfig loads configuration for the named binary into cfg. It reads
// config.yml from the first standard location that exists, loads a .env
// file the same way, lets environment variables override file values, and
// unmarshals the merged result. Missing files are not an error: the caller's
// defaults and validation decide what is mandatory.
func LoadConfig(name string, cfg interface{}, opts ...LoaderOption) error {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.FileSystem == nil {
		lc.FileSystem = osFileSystem{}
	}

	resolver := &Resolver{FileSystem: lc.FileSystem}
	files := resolver.ResolveFiles(name, lc)

	v := viper.New()
	if files.ConfigFile != "" && lc.FileSystem.Exists(files.ConfigFile) {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("config: read %s: %w", files.ConfigFile, err)
		}
	}

	// .env goes into the process environment first so the bindings below
	// see it like any other exported variable.
	if files.EnvFile != "" && lc.FileSystem.Exists(files.EnvFile) {
		if err := lc.FileSystem.LoadEnv(files.EnvFile); err != nil {
			return fmt.Errorf("config: load %s: %w", files.EnvFile, err)
		}
	}
	v.AutomaticEnv()
	bindEnvOverrides(v)

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("config: unmarshal %s: %w", name, err)
	}
	return nil
}

// Resolver finds the config and env files for a binary.
type Resolver struct {
	FileSystem FileSystem
}

// ResolvedFiles holds the paths the resolver settled on. Empty fields mean
// nothing was found.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// ResolveFiles returns explicit paths when set, otherwise searches the
// standard locations relative to the working directory.
func (r *Resolver) ResolveFiles(name string, opts LoaderConfig) ResolvedFiles {
	resolved := ResolvedFiles{ConfigFile: opts.ConfigFile, EnvFile: opts.EnvFile}
	if resolved.ConfigFile == "" {
		resolved.ConfigFile = r.firstExisting(searchPaths(name, "config.yml"))
	}
	if resolved.EnvFile == "" {
		// A name-scoped env file beats the shared one at every location.
		resolved.EnvFile = r.firstExisting(searchPaths(name, ".env."+name))
		if resolved.EnvFile == "" {
			resolved.EnvFile = r.firstExisting(searchPaths(name, ".env"))
		}
	}
	return resolved
}

func (r *Resolver) firstExisting(paths []string) string {
	for _, p := range paths {
		if r.FileSystem.Exists(p) {
			return p
		}
	}
	return ""
}

// searchPaths lists candidate locations for a file, covering runs from the
// repo root, from cmd/<name> and from a test's package directory.
func searchPaths(name, file string) []string {
	var paths []string
	for _, up := range []string{".", "..", filepath.Join("..", "..")} {
		paths = append(paths, filepath.Join(up, "cmd", name, file))
	}
	for _, up := range []string{".", "..", filepath.Join("..", "..")} {
		paths = append(paths, filepath.Join(up, file))
	}
	return paths
}

// bindEnvOverrides maps exported variables onto nested config keys. Viper's
// AutomaticEnv only matches flat keys, so STORAGE_BASE_PATH would never
// reach storage.base_path without explicit binding. Every underscore is a
// candidate nesting point; unmatched variants are simply never read.
func bindEnvOverrides(v *viper.Viper) {
	for _, env := range os.Environ() {
		key, value, ok := strings.Cut(env, "=")
		if !ok || key == "" {
			continue
		}
		for _, variant := range keyVariants(key) {
			v.Set(variant, value)
		}
	}
}

// keyVariants lowers an env key and splits it at each underscore in turn:
// STORAGE_BASE_PATH yields storage_base_path, storage.base_path and
// storage.base.path among others.
func keyVariants(envKey string) []string {
	lower := strings.ToLower(envKey)
	parts := strings.Split(lower, "_")
	if len(parts) == 1 {
		return []string{lower}
	}

	seen := map[string]bool{}
	var variants []string
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			variants = append(variants, s)
		}
	}

	add(lower)
	add(strings.ReplaceAll(lower, "_", "."))
	for i := 1; i < len(parts); i++ {
		add(strings.Join(parts[:i], ".") + "." + strings.Join(parts[i:], "_"))
	}
	return variants
}
