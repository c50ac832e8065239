// Package prompt loads prompt templates from markdown files with YAML
// frontmatter. A prompts directory on disk overrides the embedded defaults,
// and model-specific file variants take priority over the base file.
package prompt

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults/*.md
var defaultsFS embed.FS

// Store resolves prompt names to template files.
type Store struct {
	// dir is an optional on-disk prompts directory that overrides the
	// embedded defaults. Empty means embedded-only.
	dir string
}

// NewStore creates a Store. dir may be empty to use only the embedded
// defaults; a non-empty dir is checked first on every load.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Load resolves a prompt by name with model-specific version selection:
//
//  1. {name}.{model}.md - exact model match
//  2. {name}.{prefix}.md - model family prefix (before the first dash)
//  3. {name}.md - default version
//
// Each candidate is checked in the on-disk directory first, then in the
// embedded defaults.
func (s *Store) Load(name, model string) (*Prompt, error) {
	var candidates []string
	if model != "" {
		candidates = append(candidates, fmt.Sprintf("%s.%s.md", name, model))
		if idx := strings.Index(model, "-"); idx > 0 {
			candidates = append(candidates, fmt.Sprintf("%s.%s.md", name, model[:idx]))
		}
	}
	candidates = append(candidates, name+".md")

	for _, candidate := range candidates {
		if s.dir != "" {
			data, err := os.ReadFile(filepath.Join(s.dir, candidate))
			if err == nil {
				return parse(name, data)
			}
		}
		data, err := fs.ReadFile(defaultsFS, path.Join("defaults", candidate))
		if err == nil {
			return parse(name, data)
		}
	}
	return nil, fmt.Errorf("prompt: %q not found (model %q, tried %s)", name, model, strings.Join(candidates, ", "))
}

// parse splits YAML frontmatter from the template body.
func parse(name string, data []byte) (*Prompt, error) {
	content := strings.TrimSpace(string(data))
	metadata := map[string]any{}

	if strings.HasPrefix(content, "---\n") {
		rest := content[4:]
		if end := strings.Index(rest, "\n---"); end >= 0 {
			front := rest[:end]
			body := rest[end+4:]
			if err := yaml.Unmarshal([]byte(front), &metadata); err != nil {
				return nil, fmt.Errorf("prompt: parse frontmatter for %q: %w", name, err)
			}
			content = strings.TrimSpace(body)
		}
	}

	if v, ok := metadata["name"].(string); ok && v != "" {
		name = v
	}
	return &Prompt{Name: name, Content: content, Metadata: metadata}, nil
}
