// Package taskfile parses markdown task files: YAML frontmatter identifying
// the task, a body carrying the payload, and an optional constraints section.
package taskfile

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/calder/delegator/internal/models"
)

// frontmatter is the YAML header of a task file.
type frontmatter struct {
	ID       string           `yaml:"id"`
	Category models.Category  `yaml:"category"`
	Risk     models.RiskClass `yaml:"risk"`
}

// Parse reads a task file from disk.
func Parse(path string) (*models.Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read task file: %w", err)
	}
	task, err := ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parse task file %s: %w", path, err)
	}
	return task, nil
}

// ParseBytes parses task file content. The payload is the markdown body with
// the constraints section lifted out; constraints are the list items under a
// "Constraints" heading.
func ParseBytes(data []byte) (*models.Task, error) {
	header, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, err
	}

	var fm frontmatter
	if err := yaml.Unmarshal(header, &fm); err != nil {
		return nil, fmt.Errorf("invalid frontmatter: %w", err)
	}

	task := &models.Task{
		ID:        fm.ID,
		Category:  fm.Category,
		RiskClass: fm.Risk,
	}
	if task.ID == "" {
		task.ID = models.NewTaskID()
	}
	if task.RiskClass == "" {
		task.RiskClass = models.RiskNone
	}

	task.Payload, task.Constraints = extractSections(body)
	if task.Payload == "" {
		return nil, fmt.Errorf("task file has an empty payload body")
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}
	return task, nil
}

// splitFrontmatter separates the YAML header between --- markers from the
// markdown body.
func splitFrontmatter(data []byte) (header, body []byte, err error) {
	const marker = "---"

	lines := bytes.SplitAfter(data, []byte("\n"))
	if len(lines) == 0 || strings.TrimSpace(string(lines[0])) != marker {
		return nil, nil, fmt.Errorf("task file must start with a frontmatter block")
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(string(lines[i])) == marker {
			return bytes.Join(lines[1:i], nil), bytes.Join(lines[i+1:], nil), nil
		}
	}
	return nil, nil, fmt.Errorf("frontmatter block is not closed")
}

// extractSections walks the markdown AST, collecting list items under a
// "Constraints" heading separately from the rest of the body, which becomes
// the payload.
func extractSections(body []byte) (payload string, constraints []string) {
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(body))

	var payloadParts []string
	inConstraints := false

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			title := strings.TrimSpace(nodeText(node, body))
			inConstraints = strings.EqualFold(title, "constraints")
		case *ast.List:
			if !inConstraints {
				payloadParts = append(payloadParts, nodeText(node, body))
				continue
			}
			for item := node.FirstChild(); item != nil; item = item.NextSibling() {
				if c := strings.TrimSpace(nodeText(item, body)); c != "" {
					constraints = append(constraints, c)
				}
			}
		default:
			if !inConstraints {
				if t := strings.TrimSpace(nodeText(n, body)); t != "" {
					payloadParts = append(payloadParts, t)
				}
			}
		}
	}

	return strings.TrimSpace(strings.Join(payloadParts, "\n\n")), constraints
}

// nodeText flattens the text content of a markdown node.
func nodeText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := child.(*ast.Text); ok {
			sb.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}
