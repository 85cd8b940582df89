package neo4j

import (
	"reflect"
	"strings"
	"testing"

	"kgrag/pkg/common"
	"kgrag/pkg/store"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

func testDocument() common.GraphDocument {
	john := common.Node{ID: "John Doe", Type: "Person"}
	crime := common.Node{ID: "Drug Trafficking", Type: "Crime"}
	park := common.Node{ID: "Central Park", Type: "Location"}
	return common.GraphDocument{
		Nodes: []common.Node{john, crime, park},
		Relationships: []common.Relationship{
			{Source: john, Target: crime, Type: "SUSPECT_IN"},
			{Source: park, Target: crime, Type: "SCENE_OF"},
		},
		Source: common.Chunk{ID: "chunk-1", Source: "files/a.pdf", Page: 2, Offset: 488, Text: "John Doe ..."},
	}
}

func TestBuildStatementsPlain(t *testing.T) {
	stmts := buildStatements(testDocument(), store.AddOptions{})

	// three labels, two relationship groups, no document
	if len(stmts) != 5 {
		t.Fatalf("expected 5 statements, got %d", len(stmts))
	}
	for _, st := range stmts {
		if strings.Contains(st.cypher, store.DocumentLabel) || strings.Contains(st.cypher, store.BaseEntityLabel) {
			t.Errorf("unexpected source or base label in:\n%s", st.cypher)
		}
	}

	if want := "UNWIND $rows AS row\nMERGE (n:`Crime` {id: row.id})"; stmts[0].cypher != want {
		t.Errorf("unexpected node statement:\n%s", stmts[0].cypher)
	}

	rel := stmts[3]
	want := "UNWIND $rows AS row\n" +
		"MERGE (s:`Location` {id: row.source})\n" +
		"MERGE (t:`Crime` {id: row.target})\n" +
		"MERGE (s)-[:`SCENE_OF`]->(t)"
	if rel.cypher != want {
		t.Errorf("unexpected relationship statement:\n%s", rel.cypher)
	}
	rows := rel.params["rows"].([]any)
	if !reflect.DeepEqual(rows[0], map[string]any{"source": "Central Park", "target": "Drug Trafficking"}) {
		t.Errorf("unexpected rows %v", rows)
	}
}

func TestBuildStatementsWithSourceAndBaseLabel(t *testing.T) {
	stmts := buildStatements(testDocument(), store.AddOptions{BaseEntityLabel: true, IncludeSource: true})
	if len(stmts) != 6 {
		t.Fatalf("expected 6 statements, got %d", len(stmts))
	}

	doc := stmts[0]
	if !strings.HasPrefix(doc.cypher, "MERGE (d:`Document` {id: $id})") {
		t.Errorf("expected document merge first, got:\n%s", doc.cypher)
	}
	if doc.params["id"] != "chunk-1" || doc.params["page"] != int64(2) {
		t.Errorf("unexpected document params %v", doc.params)
	}

	node := stmts[1]
	for _, want := range []string{"SET n:`__Entity__`", "MERGE (d)-[:`MENTIONS`]->(n)"} {
		if !strings.Contains(node.cypher, want) {
			t.Errorf("node statement missing %q:\n%s", want, node.cypher)
		}
	}
	if node.params["document"] != "chunk-1" {
		t.Errorf("expected document param, got %v", node.params)
	}

	if !strings.Contains(stmts[5].cypher, "SET s:`__Entity__`, t:`__Entity__`") {
		t.Errorf("relationship statement missing base label:\n%s", stmts[5].cypher)
	}
}

func TestBuildStatementsSanitizesIdentifiers(t *testing.T) {
	evil := common.Node{ID: "x", Type: "Person`) DETACH DELETE n //"}
	doc := common.GraphDocument{
		Nodes:         []common.Node{evil},
		Relationships: []common.Relationship{{Source: evil, Target: evil, Type: "knows of"}},
	}
	for _, st := range buildStatements(doc, store.AddOptions{}) {
		if strings.Contains(st.cypher, "`)") {
			t.Errorf("identifier escaped its quotes:\n%s", st.cypher)
		}
	}
	stmts := buildStatements(doc, store.AddOptions{})
	if !strings.Contains(stmts[1].cypher, "[:`knows_of`]") {
		t.Errorf("expected sanitized relationship type, got:\n%s", stmts[1].cypher)
	}
}

func TestBuildStatementsEmpty(t *testing.T) {
	if got := buildStatements(common.GraphDocument{}, store.AddOptions{}); len(got) != 0 {
		t.Errorf("expected no statements, got %d", len(got))
	}
}

func TestPlainValue(t *testing.T) {
	n := neo4j.Node{Labels: []string{"Person"}, Props: map[string]any{"id": "John Doe"}}
	r := neo4j.Relationship{Type: "SUSPECT_IN", Props: map[string]any{}}

	got := plainValue([]any{n, r, int64(3)}).([]any)
	node := got[0].(map[string]any)
	if node["id"] != "John Doe" || !reflect.DeepEqual(node["_labels"], []string{"Person"}) {
		t.Errorf("unexpected node %v", node)
	}
	if rel := got[1].(map[string]any); rel["_type"] != "SUSPECT_IN" {
		t.Errorf("unexpected relationship %v", rel)
	}
	if got[2] != int64(3) {
		t.Errorf("expected scalar untouched, got %v", got[2])
	}
}

func TestSchemaHelpers(t *testing.T) {
	if got := trimRelType(":`VICTIM_OF`"); got != "VICTIM_OF" {
		t.Errorf("trimRelType() = %q", got)
	}
	tests := map[string]string{"String": "STRING", "Long": "INTEGER", "Double": "FLOAT", "StringArray": "LIST", "Date": "DATE"}
	for in, want := range tests {
		if got := cypherType(in); got != want {
			t.Errorf("cypherType(%q) = %q, want %q", in, got, want)
		}
	}

	rec := &neo4j.Record{
		Keys:   []string{"nodeLabels", "propertyName", "propertyTypes"},
		Values: []any{[]any{"Person", "__Entity__"}, "id", []any{"String"}},
	}
	if got := propertyFromRecord(rec); got != (store.Property{Name: "id", Type: "STRING"}) {
		t.Errorf("unexpected property %+v", got)
	}
	if got := stringsFromRecord(rec, "nodeLabels"); !reflect.DeepEqual(got, []string{"Person", "__Entity__"}) {
		t.Errorf("unexpected labels %v", got)
	}
}
