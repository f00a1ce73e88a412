// Package seed populates a store with the initial world: seeds declared
// inline in the domain followed by markdown lore documents.
package seed

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"worldweave/internal/config"
	"worldweave/internal/graph"
	"worldweave/internal/parser"
)

// Store is the part of the graph store the loader writes to.
type Store interface {
	AddEntity(e graph.Entity) (string, error)
	AddRelationship(r graph.Relationship) (bool, error)
}

type Result struct {
	EntitiesAdded      int
	RelationshipsAdded int
	FilesSkipped       int
	Errors             []error
}

const LayerTag = "layer"

// Run loads the domain's inline seeds and every lore document under the
// project's layers. Per-seed problems are collected in Result.Errors; only
// an unreadable lore tree aborts the run.
func Run(cfg *config.ProjectConfig, domain *config.Domain, store Store) (*Result, error) {
	result := &Result{}
	seeds := append([]config.Seed(nil), domain.Seeds...)

	if cfg != nil {
		for _, layer := range cfg.Layers {
			files, err := walkMarkdownFiles(layer.Paths, cfg.Exclude)
			if err != nil {
				return nil, fmt.Errorf("walking files for layer %s: %w", layer.Name, err)
			}

			for _, path := range files {
				doc, err := parser.ParseFile(path)
				if err != nil {
					if errors.Is(err, parser.ErrNoFrontmatter) || errors.Is(err, parser.ErrMissingKind) {
						result.FilesSkipped++
						continue
					}
					result.Errors = append(result.Errors, fmt.Errorf("parsing %s: %w", path, err))
					continue
				}
				if !domain.IsValidEntityKind(doc.Kind) {
					result.FilesSkipped++
					continue
				}
				seeds = append(seeds, FromDocument(doc, layer.Name))
			}
		}
	}

	var added []config.Seed
	for _, s := range seeds {
		s = domain.NormalizeSeed(s)
		if err := domain.CheckSeed(s); err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}
		if _, err := store.AddEntity(toEntity(s)); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("adding seed %s: %w", s.ID, err))
			continue
		}
		result.EntitiesAdded++
		added = append(added, s)
	}

	for _, s := range added {
		for _, link := range s.Related {
			ok, err := store.AddRelationship(graph.Relationship{
				Kind:     link.Kind,
				Src:      s.ID,
				Dst:      link.Target,
				Strength: link.Strength,
				Status:   graph.StatusActive,
			})
			if err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("relating %s: %w", s.ID, err))
				continue
			}
			if ok {
				result.RelationshipsAdded++
			}
		}
	}

	return result, nil
}

// FromDocument converts a lore document into a seed tagged with its layer.
func FromDocument(doc *parser.Document, layer string) config.Seed {
	tags := make(map[string]any, len(doc.Tags)+1)
	for key, value := range doc.Tags {
		tags[key] = value
	}
	if layer != "" {
		tags[LayerTag] = layer
	}

	related := make([]config.SeedLink, 0, len(doc.Related))
	for _, link := range doc.Related {
		related = append(related, config.SeedLink{Kind: link.Kind, Target: link.Target, Strength: link.Strength})
	}

	return config.Seed{
		ID:          doc.ID,
		Kind:        doc.Kind,
		Subtype:     parser.String(doc.Frontmatter, "subtype"),
		Name:        doc.Title,
		Description: doc.Body,
		Status:      parser.String(doc.Frontmatter, "status"),
		Prominence:  parser.String(doc.Frontmatter, "prominence"),
		Culture:     parser.String(doc.Frontmatter, "culture"),
		Tags:        tags,
		Related:     related,
	}
}

func toEntity(s config.Seed) graph.Entity {
	prominence, ok := graph.ParseProminence(s.Prominence)
	if !ok {
		prominence = graph.Marginal
	}
	status := s.Status
	if status == "" {
		status = graph.StatusActive
	}
	return graph.Entity{
		ID:          s.ID,
		Kind:        s.Kind,
		Subtype:     s.Subtype,
		Name:        s.Name,
		Description: s.Description,
		Status:      status,
		Prominence:  prominence,
		Culture:     s.Culture,
		Tags:        s.Tags,
	}
}

func walkMarkdownFiles(roots []string, excludes []string) ([]string, error) {
	excluded := make([]string, 0, len(excludes))
	for _, path := range excludes {
		if path == "" {
			continue
		}
		excluded = append(excluded, filepath.Clean(path))
	}

	var files []string
	for _, root := range roots {
		if root == "" {
			continue
		}
		root = filepath.Clean(root)
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() && isExcluded(path, excluded) {
				return filepath.SkipDir
			}
			if d.IsDir() {
				return nil
			}
			if !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
				return nil
			}
			if isExcluded(path, excluded) {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

func isExcluded(path string, excludes []string) bool {
	clean := filepath.Clean(path)
	for _, exclude := range excludes {
		if exclude == clean || strings.HasPrefix(clean, exclude+string(os.PathSeparator)) {
			return true
		}
	}
	return false
}
