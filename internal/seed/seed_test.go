package seed

import (
	"errors"
	"path/filepath"
	"reflect"
	"sort"
	"testing"

	"worldweave/internal/config"
	"worldweave/internal/graph"
)

type mockStore struct {
	entities      []graph.Entity
	relationships []graph.Relationship
	ids           map[string]bool
	failEntity    string
}

func (m *mockStore) AddEntity(e graph.Entity) (string, error) {
	if e.ID == m.failEntity {
		return "", errors.New("forced error")
	}
	if m.ids == nil {
		m.ids = make(map[string]bool)
	}
	m.ids[e.ID] = true
	m.entities = append(m.entities, e)
	return e.ID, nil
}

func (m *mockStore) AddRelationship(r graph.Relationship) (bool, error) {
	if !m.ids[r.Src] || !m.ids[r.Dst] {
		return false, errors.New("missing endpoint")
	}
	m.relationships = append(m.relationships, r)
	return true, nil
}

func testProjectConfig(t *testing.T) *config.ProjectConfig {
	t.Helper()
	return &config.ProjectConfig{
		Project: "test",
		Version: 1,
		Layers: []config.Layer{
			{Name: "setting", Paths: []string{filepath.Join("testdata", "lore")}},
		},
		Exclude: []string{filepath.Join("testdata", "lore", "drafts")},
	}
}

func testDomain(t *testing.T) *config.Domain {
	t.Helper()
	domain, err := config.LoadDomain(filepath.Join("testdata", "domain.yaml"))
	if err != nil {
		t.Fatalf("load domain: %v", err)
	}
	return domain
}

func TestRun(t *testing.T) {
	store := &mockStore{}
	result, err := Run(testProjectConfig(t), testDomain(t), store)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	var ids []string
	for _, e := range store.entities {
		ids = append(ids, e.ID)
	}
	sort.Strings(ids)
	if !reflect.DeepEqual(ids, []string{"mara", "osric_dunn", "tide_guild"}) {
		t.Fatalf("unexpected entities: %v", ids)
	}
	if result.EntitiesAdded != 3 {
		t.Fatalf("expected 3 entities added, got %d", result.EntitiesAdded)
	}
	if result.RelationshipsAdded != 2 {
		t.Fatalf("expected 2 relationships added, got %d", result.RelationshipsAdded)
	}
	if result.FilesSkipped != 2 {
		t.Fatalf("expected the note and the unknown kind skipped, got %d", result.FilesSkipped)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected the dangling ally to be reported, got %v", result.Errors)
	}
}

func TestRun_LayerTagAndDefaults(t *testing.T) {
	store := &mockStore{}
	if _, err := Run(testProjectConfig(t), testDomain(t), store); err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, e := range store.entities {
		switch e.ID {
		case "mara":
			if e.Prominence != graph.Recognized || e.Tags[LayerTag] != "setting" || !e.HasTag("sailor") {
				t.Fatalf("unexpected mara: %+v", e)
			}
			if e.Description != "Mara keeps the harbour lights burning." {
				t.Fatalf("expected body as description, got %q", e.Description)
			}
		case "tide_guild":
			if e.Status != graph.StatusActive || e.Prominence != graph.Marginal {
				t.Fatalf("expected default status and prominence, got %q %v", e.Status, e.Prominence)
			}
			if _, ok := e.Tags[LayerTag]; ok {
				t.Fatalf("expected inline seed without layer tag")
			}
		}
	}
}

func TestRun_InlineOnly(t *testing.T) {
	store := &mockStore{failEntity: "tide_guild"}
	result, err := Run(nil, testDomain(t), store)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.EntitiesAdded != 0 || len(result.Errors) != 1 {
		t.Fatalf("expected forced failure reported, got %+v", result)
	}
}

func TestRun_MissingLayerPath(t *testing.T) {
	cfg := testProjectConfig(t)
	cfg.Layers[0].Paths = []string{filepath.Join(t.TempDir(), "missing")}
	if _, err := Run(cfg, testDomain(t), &mockStore{}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRun_NormalizesKindSpelling(t *testing.T) {
	domain := testDomain(t)
	domain.Seeds = append(domain.Seeds, config.Seed{
		ID:      "ada",
		Kind:    "NPC",
		Related: []config.SeedLink{{Kind: "Member_Of", Target: "tide_guild"}},
	})

	store := &mockStore{}
	result, err := Run(nil, domain, store)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("expected no errors, got %v", result.Errors)
	}
	var ada *graph.Entity
	for i := range store.entities {
		if store.entities[i].ID == "ada" {
			ada = &store.entities[i]
		}
	}
	if ada == nil || ada.Kind != "npc" {
		t.Fatalf("expected ada with kind npc, got %+v", ada)
	}
	if len(store.relationships) != 1 || store.relationships[0].Kind != "member_of" {
		t.Fatalf("expected one member_of relationship, got %+v", store.relationships)
	}
}
