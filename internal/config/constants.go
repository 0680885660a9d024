package config

// Default configuration values
const (
	DefaultMaxBodySize int64 = 64 * 1024 // 64KB, a single chat message
	DefaultConfigPath        = "config.yaml"
)

// Generation backend types
const (
	BackendOpenAI    = "openai"
	BackendLangChain = "langchain"
	BackendGemini    = "gemini"
)

// Provider defaults
const (
	DefaultLLMEndpoint     = "https://api.openai.com/v1"
	DefaultLLMModel        = "gpt-4o"
	DefaultModerationModel = "omni-moderation-latest"
	DefaultGeminiModel     = "gemini-2.0-flash"
)

// Storage driver names
const (
	StorageDriverSQLite = "sqlite"
)
