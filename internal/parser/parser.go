package parser

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// Document is one lore file: YAML frontmatter describing an entity and a
// markdown body that becomes its description.
type Document struct {
	Frontmatter map[string]any
	ID          string
	Title       string
	Kind        string
	Tags        map[string]any
	Related     []Link
	Body        string
	SourceFile  string
}

type Link struct {
	Kind     string
	Target   string
	Strength *float64
}

var (
	ErrNoFrontmatter = errors.New("no frontmatter found")
	ErrInvalidYAML   = errors.New("invalid YAML in frontmatter")
	ErrMissingTitle  = errors.New("frontmatter missing required 'title' field")
	ErrMissingKind   = errors.New("frontmatter missing required 'kind' field")
)

func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	doc.SourceFile = path
	return doc, nil
}

func Parse(content []byte) (*Document, error) {
	trimmed := bytes.TrimLeft(content, "\ufeff\n\r\t ")
	if !bytes.HasPrefix(trimmed, []byte("---\n")) {
		return nil, ErrNoFrontmatter
	}

	rest := trimmed[len("---\n"):]
	end := bytes.Index(rest, []byte("---\n"))
	if end == -1 {
		return nil, ErrNoFrontmatter
	}

	yamlBytes := rest[:end]
	body := string(rest[end+len("---\n"):])

	var frontmatter map[string]any
	if err := yaml.Unmarshal(yamlBytes, &frontmatter); err != nil {
		return nil, ErrInvalidYAML
	}

	title, ok := frontmatter["title"].(string)
	if !ok || strings.TrimSpace(title) == "" {
		return nil, ErrMissingTitle
	}

	kind := String(frontmatter, "kind")
	if kind == "" {
		// older lore files name the kind "type"
		kind = String(frontmatter, "type")
	}
	if kind == "" {
		return nil, ErrMissingKind
	}

	id := String(frontmatter, "id")
	if id == "" {
		id = Slug(title)
	}

	tags, err := parseTags(frontmatter["tags"])
	if err != nil {
		return nil, err
	}

	related, err := parseRelated(frontmatter["related"])
	if err != nil {
		return nil, err
	}

	return &Document{
		Frontmatter: frontmatter,
		ID:          id,
		Title:       title,
		Kind:        kind,
		Tags:        tags,
		Related:     related,
		Body:        strings.TrimSpace(body),
	}, nil
}

// String reads a trimmed string field, or "" when absent or not a string.
func String(frontmatter map[string]any, key string) string {
	s, ok := frontmatter[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// Slug lowercases s and joins its letter and digit runs with underscores.
func Slug(s string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	return b.String()
}

func parseTags(value any) (map[string]any, error) {
	if value == nil {
		return nil, nil
	}
	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		return map[string]any{v: true}, nil
	case []any:
		tags := make(map[string]any, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("tags must be strings")
			}
			if strings.TrimSpace(s) == "" {
				continue
			}
			tags[s] = true
		}
		if len(tags) == 0 {
			return nil, nil
		}
		return tags, nil
	case map[string]any:
		tags := make(map[string]any, len(v))
		for key, item := range v {
			switch item.(type) {
			case bool, string:
				tags[key] = item
			default:
				return nil, fmt.Errorf("tag %s must be a boolean or string", key)
			}
		}
		return tags, nil
	default:
		return nil, fmt.Errorf("tags must be a string, a list of strings or a map")
	}
}

func parseRelated(value any) ([]Link, error) {
	if value == nil {
		return nil, nil
	}
	items, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("related must be a list")
	}

	links := make([]Link, 0, len(items))
	for i, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("related entry %d must be a map", i)
		}
		link := Link{Kind: String(entry, "kind"), Target: String(entry, "target")}
		if link.Kind == "" || link.Target == "" {
			return nil, fmt.Errorf("related entry %d missing kind or target", i)
		}
		switch strength := entry["strength"].(type) {
		case nil:
		case int:
			v := float64(strength)
			link.Strength = &v
		case float64:
			link.Strength = &strength
		default:
			return nil, fmt.Errorf("related entry %d strength must be a number", i)
		}
		links = append(links, link)
	}
	return links, nil
}
