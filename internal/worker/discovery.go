package worker

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/calder/delegator/internal/models"
	"github.com/calder/delegator/internal/schema"
)

// Definition is a worker definition file: YAML frontmatter carrying the
// invocation wiring, followed by a markdown body describing the worker.
type Definition struct {
	Name        string          `yaml:"name"`
	Category    models.Category `yaml:"category"`
	Command     string          `yaml:"command"`
	Args        []string        `yaml:"args"`
	Timeout     time.Duration   `yaml:"timeout"`
	Description string          `yaml:"-"` // extracted from the markdown body
	FilePath    string          `yaml:"-"`
}

// Worker builds the CommandWorker described by the definition. The validator
// checks command output against the category contract; nil selects the
// default contracts.
func (d *Definition) Worker(validator *schema.Validator) *CommandWorker {
	return &CommandWorker{
		WorkerName:     d.Name,
		WorkerCategory: d.Category,
		Command:        d.Command,
		Args:           d.Args,
		Timeout:        d.Timeout,
		Validator:      validator,
	}
}

// Discover scans a directory for worker definition files (*.md) and returns
// the parsed definitions. A missing directory yields an empty slice, not an
// error: a deployment without file-defined workers is legitimate. README.md
// files are documentation, not definitions, and are skipped.
func Discover(dir string) ([]*Definition, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read workers directory: %w", err)
	}

	var defs []*Definition
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		if strings.EqualFold(entry.Name(), "README.md") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		def, err := ParseDefinition(path)
		if err != nil {
			return nil, fmt.Errorf("parse worker definition %s: %w", path, err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// LoadInto discovers definitions under dir and registers their workers, each
// wired to validator for output checking. Returns the number of workers
// registered.
func LoadInto(dir string, registry *Registry, validator *schema.Validator) (int, error) {
	defs, err := Discover(dir)
	if err != nil {
		return 0, err
	}
	for _, def := range defs {
		if err := registry.Register(def.Worker(validator)); err != nil {
			return 0, fmt.Errorf("register worker from %s: %w", def.FilePath, err)
		}
	}
	return len(defs), nil
}

// ParseDefinition reads one definition file: frontmatter between --- markers
// decoded as YAML, body parsed as markdown with the first paragraph kept as
// the worker description.
func ParseDefinition(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	frontmatter, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, err
	}

	var def Definition
	if err := yaml.Unmarshal(frontmatter, &def); err != nil {
		return nil, fmt.Errorf("invalid frontmatter: %w", err)
	}
	if def.Name == "" {
		return nil, fmt.Errorf("frontmatter is missing 'name'")
	}
	if !models.ValidCategory(def.Category) {
		return nil, fmt.Errorf("frontmatter has unknown category %q", def.Category)
	}
	if def.Command == "" {
		return nil, fmt.Errorf("frontmatter is missing 'command'")
	}

	def.Description = firstParagraph(body)
	def.FilePath = path
	return &def, nil
}

// splitFrontmatter separates the YAML frontmatter block from the markdown
// body. The file must start with a --- line and contain a closing --- line.
func splitFrontmatter(data []byte) (frontmatter, body []byte, err error) {
	const marker = "---"

	lines := bytes.SplitAfter(data, []byte("\n"))
	if len(lines) == 0 || strings.TrimSpace(string(lines[0])) != marker {
		return nil, nil, fmt.Errorf("definition must start with a frontmatter block")
	}

	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(string(lines[i])) == marker {
			return bytes.Join(lines[1:i], nil), bytes.Join(lines[i+1:], nil), nil
		}
	}
	return nil, nil, fmt.Errorf("frontmatter block is not closed")
}

// firstParagraph extracts the text of the first paragraph in the markdown
// body, skipping headings.
func firstParagraph(body []byte) string {
	md := goldmark.New()
	reader := text.NewReader(body)
	doc := md.Parser().Parse(reader)

	var para string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || para != "" {
			return ast.WalkContinue, nil
		}
		if _, ok := n.(*ast.Paragraph); ok {
			var sb strings.Builder
			for c := n.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*ast.Text); ok {
					sb.Write(t.Segment.Value(body))
					if t.SoftLineBreak() || t.HardLineBreak() {
						sb.WriteByte(' ')
					}
				}
			}
			para = strings.TrimSpace(sb.String())
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return para
}
