package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/leadchat/data/leadchat.db"
	}
	if cfg.Knowledge.Path == "" {
		cfg.Knowledge.Path = "/usr/local/var/leadchat/data/knowledge_base.json"
	}
	if cfg.OpenAI.EmbeddingModel == "" {
		cfg.OpenAI.EmbeddingModel = "text-embedding-3-small"
	}
	if cfg.OpenAI.CompletionModel == "" {
		cfg.OpenAI.CompletionModel = "gpt-4o-mini"
	}
	if cfg.OpenAI.TimeoutSeconds == 0 {
		cfg.OpenAI.TimeoutSeconds = 15
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 3
	}
	if cfg.Retrieval.Threshold == 0 {
		cfg.Retrieval.Threshold = 0.7
	}
	if cfg.Generator.MaxTokens == 0 {
		cfg.Generator.MaxTokens = 500
	}
	if cfg.Generator.Temperature == 0 {
		cfg.Generator.Temperature = 0.7
	}
	if cfg.Generator.MaxDocLength == 0 {
		cfg.Generator.MaxDocLength = 1500
	}
	if cfg.Generator.ContextTurns == 0 {
		cfg.Generator.ContextTurns = 10
	}
	if cfg.Generator.MaxMessageSize == 0 {
		cfg.Generator.MaxMessageSize = 1000
	}
	if cfg.Mail.Port == 0 {
		cfg.Mail.Port = 587
	}
}
