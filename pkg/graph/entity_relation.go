package graph

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"kgrag/pkg/common"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CanonicalName collapses whitespace and title-cases a node name, so
// "john  DOE" and "John Doe" merge into one node.
func CanonicalName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return ""
	}
	// a Caser keeps state and must not be shared between goroutines
	return cases.Title(language.Und).String(name)
}

// CanonicalType upper-cases the first letter of a node type and lower-cases
// the rest: "CRIME" and "crime" both become "Crime".
func CanonicalType(typ string) string {
	typ = strings.Join(strings.Fields(typ), " ")
	if typ == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(typ)
	return string(unicode.ToUpper(r)) + strings.ToLower(typ[size:])
}

// CanonicalRelation converts a relation to UPPER_SNAKE_CASE.
func CanonicalRelation(rel string) string {
	var b strings.Builder
	pendingUnderscore := false
	for _, r := range rel {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingUnderscore && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingUnderscore = false
			b.WriteRune(unicode.ToUpper(r))
			continue
		}
		pendingUnderscore = true
	}
	return b.String()
}

// hasLabelText reports whether s holds at least one letter or digit, the
// characters a store keeps when turning it into a label.
func hasLabelText(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}) >= 0
}

// BuildGraphDocument converts the records of one chunk into a graph
// document. Records whose head, tail, types or relation are empty after
// canonicalization are dropped; the number dropped is returned.
func BuildGraphDocument(chunk common.Chunk, records []common.RelationRecord) (common.GraphDocument, int) {
	doc := common.GraphDocument{Source: chunk}
	seen := make(map[string]struct{})
	addNode := func(n common.Node) {
		if _, ok := seen[n.Key()]; ok {
			return
		}
		seen[n.Key()] = struct{}{}
		doc.Nodes = append(doc.Nodes, n)
	}

	dropped := 0
	for _, rec := range records {
		head := common.Node{ID: CanonicalName(rec.Head), Type: CanonicalType(rec.HeadType)}
		tail := common.Node{ID: CanonicalName(rec.Tail), Type: CanonicalType(rec.TailType)}
		relation := CanonicalRelation(rec.Relation)
		if head.ID == "" || tail.ID == "" || relation == "" ||
			!hasLabelText(head.Type) || !hasLabelText(tail.Type) {
			dropped++
			continue
		}

		addNode(head)
		addNode(tail)
		doc.Relationships = append(doc.Relationships, common.Relationship{
			Source: head,
			Target: tail,
			Type:   relation,
		})
	}

	return doc, dropped
}
