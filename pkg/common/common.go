package common

// Chunk is a token window of one PDF page. Chunks only live for the duration
// of an ingestion run; when source tracking is enabled the chunk is persisted
// as a Document node that MENTIONS every node extracted from it.
type Chunk struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Page   int    `json:"page"`
	Offset int    `json:"offset"`
	Text   string `json:"text"`
}

// RelationRecord is one head/relation/tail tuple as returned by the model.
// All five fields are required; unknown fields are rejected by the decoder.
type RelationRecord struct {
	Head     string `json:"head" validate:"required" jsonschema_description:"extracted head entity like Person, Crime, Object, Vehicle, Location, etc. Must use human-readable unique identifier."`
	HeadType string `json:"head_type" validate:"required" jsonschema_description:"type of the extracted head entity like Person, Crime, Object, Vehicle, etc"`
	Relation string `json:"relation" validate:"required" jsonschema_description:"relation between the head and the tail entities"`
	Tail     string `json:"tail" validate:"required" jsonschema_description:"extracted tail entity like Person, Crime, Object, Vehicle, Location, etc. Must use human-readable unique identifier."`
	TailType string `json:"tail_type" validate:"required" jsonschema_description:"type of the extracted tail entity like Person, Crime, Object, Vehicle, etc"`
}

// Node is an entity in the graph, identified by its name and type label.
type Node struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// Key returns the identity used for merging nodes.
func (n Node) Key() string {
	return n.Type + "\x00" + n.ID
}

// Relationship is a typed, directed edge between two nodes. It carries no
// properties besides its type.
type Relationship struct {
	Source Node   `json:"source"`
	Target Node   `json:"target"`
	Type   string `json:"type"`
}

// GraphDocument groups the nodes and relationships extracted from one chunk
// together with the chunk itself.
type GraphDocument struct {
	Nodes         []Node         `json:"nodes"`
	Relationships []Relationship `json:"relationships"`
	Source        Chunk          `json:"source"`
}
