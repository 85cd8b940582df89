package neo4j

import (
	"context"
	"fmt"
	"strings"

	"kgrag/pkg/store"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

const (
	nodePropertiesQuery = `CALL db.schema.nodeTypeProperties()
YIELD nodeLabels, propertyName, propertyTypes
RETURN nodeLabels, propertyName, propertyTypes`

	relPropertiesQuery = `CALL db.schema.relTypeProperties()
YIELD relType, propertyName, propertyTypes
RETURN relType, propertyName, propertyTypes`

	relPatternsQuery = `MATCH (a)-[r]->(b)
WITH DISTINCT labels(a) AS starts, type(r) AS type, labels(b) AS ends
UNWIND starts AS start
UNWIND ends AS end
WITH start, type, end
WHERE start <> $base AND end <> $base
RETURN DISTINCT start, type, end`
)

// Schema renders node properties, relationship properties and relationship
// patterns using the built-in db.schema procedures. The base entity label is
// left out.
func (s *GraphStore) Schema(ctx context.Context) (string, error) {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	schema := store.NewGraphSchema()

	_, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, nodePropertiesQuery, nil)
		if err != nil {
			return nil, err
		}
		for res.Next(ctx) {
			rec := res.Record()
			prop := propertyFromRecord(rec)
			for _, label := range stringsFromRecord(rec, "nodeLabels") {
				if label == store.BaseEntityLabel {
					continue
				}
				schema.AddNodeProperty(label, prop)
			}
		}
		if err := res.Err(); err != nil {
			return nil, err
		}

		res, err = tx.Run(ctx, relPropertiesQuery, nil)
		if err != nil {
			return nil, err
		}
		for res.Next(ctx) {
			rec := res.Record()
			prop := propertyFromRecord(rec)
			if prop.Name == "" {
				continue
			}
			schema.AddRelProperty(trimRelType(getStringFromRecord(rec, "relType")), prop)
		}
		if err := res.Err(); err != nil {
			return nil, err
		}

		res, err = tx.Run(ctx, relPatternsQuery, map[string]any{"base": store.BaseEntityLabel})
		if err != nil {
			return nil, err
		}
		for res.Next(ctx) {
			rec := res.Record()
			schema.AddPattern(store.Pattern{
				Start: getStringFromRecord(rec, "start"),
				Type:  getStringFromRecord(rec, "type"),
				End:   getStringFromRecord(rec, "end"),
			})
		}
		return nil, res.Err()
	})
	if err != nil {
		return "", fmt.Errorf("failed to read graph schema: %w", err)
	}

	return schema.String(), nil
}

func propertyFromRecord(rec *neo4j.Record) store.Property {
	name := getStringFromRecord(rec, "propertyName")
	if name == "" {
		return store.Property{}
	}
	types := stringsFromRecord(rec, "propertyTypes")
	typ := "STRING"
	if len(types) > 0 {
		typ = cypherType(types[0])
	}
	return store.Property{Name: name, Type: typ}
}

// cypherType maps db.schema type names (String, Long, ...) to Cypher type names.
func cypherType(t string) string {
	switch t {
	case "String":
		return "STRING"
	case "Long", "Integer":
		return "INTEGER"
	case "Double", "Float":
		return "FLOAT"
	case "Boolean":
		return "BOOLEAN"
	}
	if strings.HasSuffix(t, "Array") {
		return "LIST"
	}
	return strings.ToUpper(t)
}

// trimRelType turns ":`VICTIM_OF`" into "VICTIM_OF".
func trimRelType(t string) string {
	t = strings.TrimPrefix(t, ":")
	return strings.Trim(t, "`")
}

func getStringFromRecord(record *neo4j.Record, key string) string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}

func stringsFromRecord(record *neo4j.Record, key string) []string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return nil
	}
	items, ok := val.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
