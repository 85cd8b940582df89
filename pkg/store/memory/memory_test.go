package memory

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"kgrag/pkg/common"
	"kgrag/pkg/store"
)

func doc(chunkID string, rels ...common.Relationship) common.GraphDocument {
	d := common.GraphDocument{
		Source: common.Chunk{ID: chunkID, Source: "files/a.pdf", Page: 1, Text: "text"},
	}
	seen := map[string]bool{}
	for _, r := range rels {
		for _, n := range []common.Node{r.Source, r.Target} {
			if !seen[n.Key()] {
				seen[n.Key()] = true
				d.Nodes = append(d.Nodes, n)
			}
		}
	}
	d.Relationships = rels
	return d
}

var (
	john    = common.Node{ID: "John Doe", Type: "Person"}
	park    = common.Node{ID: "Central Park", Type: "Location"}
	traffic = common.Node{ID: "Drug Trafficking", Type: "Crime"}
)

func TestAddGraphDocumentsMergesNodes(t *testing.T) {
	s := New()
	ctx := context.Background()

	first := doc("c1", common.Relationship{Source: john, Target: traffic, Type: "SUSPECT_IN"})
	second := doc("c2",
		common.Relationship{Source: john, Target: traffic, Type: "SUSPECT_IN"},
		common.Relationship{Source: park, Target: traffic, Type: "SCENE_OF"},
	)

	if err := s.AddGraphDocuments(ctx, []common.GraphDocument{first}, store.AddOptions{}); err != nil {
		t.Fatal(err)
	}
	if err := s.AddGraphDocuments(ctx, []common.GraphDocument{second}, store.AddOptions{}); err != nil {
		t.Fatal(err)
	}

	nodes := s.Nodes()
	if len(nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d: %v", len(nodes), nodes)
	}
	if got := s.RelationshipCount(); got != 2 {
		t.Errorf("expected 2 relationships, got %d", got)
	}
	if len(s.Documents()) != 0 {
		t.Errorf("expected no documents without IncludeSource")
	}
}

func TestSameNodeTwiceYieldsOneNode(t *testing.T) {
	s := New()
	d := common.GraphDocument{Nodes: []common.Node{john, john}, Source: common.Chunk{ID: "c1"}}

	if err := s.AddGraphDocuments(context.Background(), []common.GraphDocument{d, d}, store.AddOptions{}); err != nil {
		t.Fatal(err)
	}
	if got := len(s.Nodes()); got != 1 {
		t.Errorf("expected 1 node, got %d", got)
	}
}

func TestSameNameDifferentTypeStaysDistinct(t *testing.T) {
	s := New()
	d := common.GraphDocument{Nodes: []common.Node{
		{ID: "Mugging", Type: "Crime"},
		{ID: "Mugging", Type: "Event"},
	}}
	if err := s.AddGraphDocuments(context.Background(), []common.GraphDocument{d}, store.AddOptions{}); err != nil {
		t.Fatal(err)
	}
	if got := len(s.Nodes()); got != 2 {
		t.Errorf("expected 2 nodes, got %d", got)
	}
}

func TestBaseLabelAndSource(t *testing.T) {
	s := New()
	d := doc("c1", common.Relationship{Source: john, Target: traffic, Type: "SUSPECT_IN"})

	err := s.AddGraphDocuments(context.Background(), []common.GraphDocument{d}, store.AddOptions{
		BaseEntityLabel: true,
		IncludeSource:   true,
	})
	if err != nil {
		t.Fatal(err)
	}

	if got, want := s.Labels(john), []string{"Person", store.BaseEntityLabel}; !reflect.DeepEqual(got, want) {
		t.Errorf("expected labels %v, got %v", want, got)
	}
	if got := s.Documents(); got["c1"] != 2 {
		t.Errorf("expected document c1 to mention 2 nodes, got %v", got)
	}

	schema, err := s.Schema(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"Person {id: STRING}",
		"(:Person)-[:SUSPECT_IN]->(:Crime)",
		"(:Document)-[:MENTIONS]->(:Person)",
	} {
		if !strings.Contains(schema, want) {
			t.Errorf("schema missing %q:\n%s", want, schema)
		}
	}
	if strings.Contains(schema, store.BaseEntityLabel) {
		t.Errorf("schema must not list the base label:\n%s", schema)
	}
}

func TestQueryUnsupported(t *testing.T) {
	_, err := New().Query(context.Background(), "MATCH (n) RETURN n", nil)
	if !errors.Is(err, store.ErrQueryUnsupported) {
		t.Errorf("expected ErrQueryUnsupported, got %v", err)
	}
}

func TestAddGraphDocumentsCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := New().AddGraphDocuments(ctx, []common.GraphDocument{{Nodes: []common.Node{john}}}, store.AddOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestSchema(t *testing.T) {
	s := New()
	docs := []common.GraphDocument{
		doc("c1", common.Relationship{Source: john, Target: traffic, Type: "SUSPECT_IN"}),
		doc("c2", common.Relationship{Source: park, Target: traffic, Type: "SCENE_OF"}),
	}
	if err := s.AddGraphDocuments(context.Background(), docs, store.AddOptions{BaseEntityLabel: true, IncludeSource: true}); err != nil {
		t.Fatal(err)
	}

	schema, err := s.Schema(context.Background())
	if err != nil {
		t.Fatalf("Schema() error = %v", err)
	}
	for _, want := range []string{
		"Person {id: STRING}",
		"(:Person)-[:SUSPECT_IN]->(:Crime)",
		"(:Location)-[:SCENE_OF]->(:Crime)",
		"(:Document)-[:MENTIONS]->(:Person)",
		"page: INTEGER",
	} {
		if !strings.Contains(schema, want) {
			t.Errorf("schema missing %q:\n%s", want, schema)
		}
	}
	if strings.Contains(schema, store.BaseEntityLabel) {
		t.Errorf("schema must not expose the base label:\n%s", schema)
	}
}
