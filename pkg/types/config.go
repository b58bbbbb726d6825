package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paper-digest/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// CrawlConfig holds settings for the crawl stage.
type CrawlConfig struct {
	HTTPConfig `yaml:",inline"`

	// Categories lists the arXiv categories to crawl (e.g. "cs.CV", "cs.CL").
	Categories []string `json:"categories" yaml:"categories"`

	// MaxPapers is the maximum number of papers fetched per category (default 200).
	MaxPapers int `json:"max_papers" yaml:"max_papers"`

	// DataDir is the base data directory (contains jsonl/, archive/, digests/).
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// MatchConfig holds the three knobs the relevance engine reads.
type MatchConfig struct {
	// Keywords maps lowercase keyword to a positive weight. Config
	// files may supply a plain list (weight 1.0 each) or a weighted
	// map; both are normalized into this form before the engine sees
	// them.
	Keywords map[string]float64 `json:"keywords" yaml:"keywords"`

	// Threshold is the minimum relevance score, inclusive (default 0.5).
	Threshold float64 `json:"threshold" yaml:"threshold"`

	// TopK caps the number of ranked papers. Zero or negative means unlimited.
	TopK int `json:"top_k" yaml:"top_k"`
}

// LLMConfig holds settings for the summarize stage.
type LLMConfig struct {
	// Model is the chat model identifier (e.g. "deepseek-chat").
	Model string `json:"model" yaml:"model"`

	// APIKey authenticates against the chat-completion API. Loaded
	// from .secrets/llm-api-key or the environment, never from the
	// config file checked into a repo.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL is the API base (e.g. "https://api.deepseek.com").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// BatchSize is the number of papers interpreted per API call (default 3).
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// EmailConfig holds settings for digest delivery.
type EmailConfig struct {
	// SMTPServer is the SMTP host. Empty disables email delivery.
	SMTPServer string `json:"smtp_server" yaml:"smtp_server"`

	// SMTPPort is the SMTP port: 465 uses implicit TLS, anything else STARTTLS (default 587).
	SMTPPort int `json:"smtp_port" yaml:"smtp_port"`

	// Sender is the From address and login user.
	Sender string `json:"sender" yaml:"sender"`

	// Password is the mailbox password or app authorization code.
	// Loaded from .secrets/smtp-password or the environment.
	Password string `json:"password,omitempty" yaml:"password,omitempty"`

	// Recipients lists the To addresses.
	Recipients []string `json:"recipients" yaml:"recipients"`
}

// PipelineConfig groups all stage configurations for the digest pipeline.
type PipelineConfig struct {
	Crawl CrawlConfig `json:"crawl" yaml:"crawl"`
	Match MatchConfig `json:"match" yaml:"match"`
	LLM   LLMConfig   `json:"llm" yaml:"llm"`
	Email EmailConfig `json:"email" yaml:"email"`
}
