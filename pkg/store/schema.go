package store

import (
	"fmt"
	"sort"
	"strings"
)

// Property is a property key with its Cypher type name, e.g. STRING.
type Property struct {
	Name string
	Type string
}

// Pattern is a relationship pattern between two node labels.
type Pattern struct {
	Start string
	Type  string
	End   string
}

// GraphSchema is the structural summary of a graph handed to the model for
// Cypher generation.
type GraphSchema struct {
	NodeProperties map[string][]Property
	RelProperties  map[string][]Property
	Relationships  []Pattern
}

// NewGraphSchema returns an empty schema.
func NewGraphSchema() *GraphSchema {
	return &GraphSchema{
		NodeProperties: make(map[string][]Property),
		RelProperties:  make(map[string][]Property),
	}
}

// AddNodeProperty records a property of label. A label with no properties is
// recorded with AddNodeProperty(label, Property{}).
func (s *GraphSchema) AddNodeProperty(label string, p Property) {
	s.NodeProperties[label] = appendProperty(s.NodeProperties[label], p)
}

// AddRelProperty records a property of a relationship type.
func (s *GraphSchema) AddRelProperty(relType string, p Property) {
	s.RelProperties[relType] = appendProperty(s.RelProperties[relType], p)
}

// AddPattern records a relationship pattern once.
func (s *GraphSchema) AddPattern(p Pattern) {
	for _, existing := range s.Relationships {
		if existing == p {
			return
		}
	}
	s.Relationships = append(s.Relationships, p)
}

func appendProperty(props []Property, p Property) []Property {
	if p.Name == "" {
		if props == nil {
			return []Property{}
		}
		return props
	}
	for _, existing := range props {
		if existing.Name == p.Name {
			return props
		}
	}
	return append(props, p)
}

// String renders the schema in the layout used by the Cypher generation
// prompt:
//
//	Node properties:
//	Person {id: STRING}
//	Relationship properties:
//	The relationships:
//	(:Person)-[:VICTIM_OF]->(:Crime)
func (s *GraphSchema) String() string {
	var b strings.Builder

	b.WriteString("Node properties:\n")
	writeProperties(&b, s.NodeProperties)
	b.WriteString("Relationship properties:\n")
	writeProperties(&b, s.RelProperties)
	b.WriteString("The relationships:\n")

	patterns := make([]string, 0, len(s.Relationships))
	for _, p := range s.Relationships {
		patterns = append(patterns, fmt.Sprintf("(:%s)-[:%s]->(:%s)", p.Start, p.Type, p.End))
	}
	sort.Strings(patterns)
	b.WriteString(strings.Join(patterns, "\n"))

	return strings.TrimRight(b.String(), "\n")
}

func writeProperties(b *strings.Builder, props map[string][]Property) {
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ps := append([]Property(nil), props[name]...)
		sort.Slice(ps, func(i, j int) bool { return ps[i].Name < ps[j].Name })

		fields := make([]string, 0, len(ps))
		for _, p := range ps {
			fields = append(fields, p.Name+": "+p.Type)
		}
		fmt.Fprintf(b, "%s {%s}\n", name, strings.Join(fields, ", "))
	}
}
