package domain

// AIProvider identifies the AI/embedding provider
type AIProvider string

const (
	AIProviderOpenAI    AIProvider = "openai"
	AIProviderAnthropic AIProvider = "anthropic"
	AIProviderGemini    AIProvider = "gemini"
)

// RequiresAPIKey returns true if this provider requires an API key
func (p AIProvider) RequiresAPIKey() bool {
	return true
}

// IsValid returns true if this is a known provider
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini:
		return true
	default:
		return false
	}
}

// SupportsEmbedding returns true if an embedding adapter exists for this provider
func (p AIProvider) SupportsEmbedding() bool {
	return p == AIProviderOpenAI
}

// EmbeddingSettings configures the embedding service
type EmbeddingSettings struct {
	Provider   AIProvider `json:"provider" toml:"provider"`
	Model      string     `json:"model" toml:"model"`
	APIKey     string     `json:"-" toml:"api_key"` // Never serialize to JSON
	BaseURL    string     `json:"base_url,omitempty" toml:"base_url"`
	Dimensions int        `json:"dimensions,omitempty" toml:"dimensions"`
}

// IsConfigured returns true if embedding settings are properly configured
func (e *EmbeddingSettings) IsConfigured() bool {
	if e.Provider == "" {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings configures the language model service
type LLMSettings struct {
	Provider AIProvider `json:"provider" toml:"provider"`
	Model    string     `json:"model" toml:"model"`
	APIKey   string     `json:"-" toml:"api_key"` // Never serialize to JSON
	BaseURL  string     `json:"base_url,omitempty" toml:"base_url"`
}

// IsConfigured returns true if LLM settings are properly configured
func (l *LLMSettings) IsConfigured() bool {
	if l.Provider == "" {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// AISettings groups the embedding and LLM settings
type AISettings struct {
	Embedding EmbeddingSettings `json:"embedding" toml:"embedding"`
	LLM       LLMSettings       `json:"llm" toml:"llm"`
}

// Validate checks if AISettings are valid
func (s *AISettings) Validate() error {
	if s.Embedding.Provider != "" && !s.Embedding.Provider.SupportsEmbedding() {
		return ErrInvalidProvider
	}
	if s.LLM.Provider != "" && !s.LLM.Provider.IsValid() {
		return ErrInvalidProvider
	}
	return nil
}
