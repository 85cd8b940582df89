// Package bootstrap builds the clients shared by the commands from the
// environment.
package bootstrap

import (
	"kgrag/internal/util"
)

const (
	AdapterOllama = "ollama"
	AdapterOpenAI = "openai"

	SourceLocal = "local"
	SourceS3    = "s3"
)

// Config is the environment of a command.
type Config struct {
	Debug bool

	AIAdapter     string
	AIChatURL     string
	AIChatKey     string
	AIChatModel   string
	AITemperature float64
	AIMaxRetries  int
	AIJSONRepair  bool

	Neo4jURI      string
	Neo4jUsername string
	Neo4jPassword string
	Neo4jDatabase string

	FilesSource string
	FilesDir    string
	FilesExt    string

	AWSRegion    string
	AWSEndpoint  string
	AWSAccessKey string
	AWSSecretKey string
	AWSBucket    string

	ChunkSize    int
	ChunkOverlap int
	TokenEncoder string

	BaseEntityLabel bool
	IncludeSource   bool

	ExtractPromptFile string
	CypherPromptFile  string

	QueryTopK int
	Port      string
	APIKey    string
}

// LoadConfig reads the configuration from the process environment.
func LoadConfig() Config {
	return Config{
		Debug: util.GetEnvBool("DEBUG", false),

		AIAdapter:     util.GetEnvString("AI_ADAPTER", AdapterOllama),
		AIChatURL:     util.GetEnv("AI_CHAT_URL"),
		AIChatKey:     util.GetEnv("AI_CHAT_KEY"),
		AIChatModel:   util.GetEnvString("AI_CHAT_MODEL", "llama3"),
		AITemperature: util.GetEnvNumeric("AI_TEMPERATURE", 0),
		AIMaxRetries:  util.GetEnvInt("AI_MAX_RETRIES", 1),
		AIJSONRepair:  util.GetEnvBool("AI_JSON_REPAIR", false),

		Neo4jURI:      util.GetEnvString("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUsername: util.GetEnvString("NEO4J_USERNAME", "neo4j"),
		Neo4jPassword: util.GetEnv("NEO4J_PASSWORD"),
		Neo4jDatabase: util.GetEnvString("NEO4J_DATABASE", "neo4j"),

		FilesSource: util.GetEnvString("FILES_SOURCE", SourceLocal),
		FilesDir:    util.GetEnvString("FILES_DIR", "files"),
		FilesExt:    util.GetEnvString("FILES_EXT", ".pdf"),

		AWSRegion:    util.GetEnv("AWS_REGION"),
		AWSEndpoint:  util.GetEnv("AWS_ENDPOINT"),
		AWSAccessKey: util.GetEnv("AWS_ACCESS_KEY"),
		AWSSecretKey: util.GetEnv("AWS_SECRET_KEY"),
		AWSBucket:    util.GetEnv("AWS_BUCKET"),

		ChunkSize:    util.GetEnvInt("CHUNK_SIZE", 512),
		ChunkOverlap: util.GetEnvInt("CHUNK_OVERLAP", 24),
		TokenEncoder: util.GetEnvString("TOKEN_ENCODER", "r50k_base"),

		BaseEntityLabel: util.GetEnvBool("GRAPH_BASE_ENTITY_LABEL", true),
		IncludeSource:   util.GetEnvBool("GRAPH_INCLUDE_SOURCE", true),

		ExtractPromptFile: util.GetEnv("EXTRACT_PROMPT_FILE"),
		CypherPromptFile:  util.GetEnv("CYPHER_PROMPT_FILE"),

		QueryTopK: util.GetEnvInt("QUERY_TOP_K", 10),
		Port:      util.GetEnvString("PORT", "8080"),
		APIKey:    util.GetEnv("SERVER_API_KEY"),
	}
}
