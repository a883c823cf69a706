package model

// Config is the complete provato configuration, loadable from
// ~/.provato/config.yaml, PROVATO_* environment variables, or flags.
type Config struct {
	LLM         LLMConfig         `yaml:"llm" json:"llm"`
	Cache       CacheConfig       `yaml:"cache" json:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" json:"concurrency"`
	Tolerance   ToleranceConfig   `yaml:"tolerance" json:"tolerance"`
	Output      OutputConfig      `yaml:"output" json:"output"`
}

// LLMConfig configures the generative-model providers. Providers lists the
// fallback order; the first available provider handles each call.
type LLMConfig struct {
	Providers      []string `yaml:"providers" json:"providers"` // e.g. ["openai", "anthropic", "ollama"]
	Model          string   `yaml:"model" json:"model"`         // Provider-specific model name
	APIKey         string   `yaml:"api_key,omitempty" json:"-"` // Prefer env vars
	BaseURL        string   `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	TimeoutSeconds int      `yaml:"timeout_seconds" json:"timeout_seconds"`
	MaxTokens      int      `yaml:"max_tokens" json:"max_tokens"`
}

// CacheConfig configures the evidence cache layers.
type CacheConfig struct {
	Dir              string `yaml:"dir" json:"dir"`         // Disk/sqlite location; empty disables the durable layer
	Backend          string `yaml:"backend" json:"backend"` // "disk" or "sqlite"
	MemoryTTLMinutes int    `yaml:"memory_ttl_minutes" json:"memory_ttl_minutes"`
	DurableTTLHours  int    `yaml:"durable_ttl_hours" json:"durable_ttl_hours"`
}

// ConcurrencyConfig bounds the retrieval worker pools.
type ConcurrencyConfig struct {
	SubClaimWorkers      int     `yaml:"subclaim_workers" json:"subclaim_workers"` // Outer pool cap
	SourceWorkers        int     `yaml:"source_workers" json:"source_workers"`     // Inner per-sub-claim fan-out cap
	SourceTimeoutSeconds int     `yaml:"source_timeout_seconds" json:"source_timeout_seconds"`
	RequestsPerSecond    float64 `yaml:"requests_per_second" json:"requests_per_second"`
}

// ToleranceConfig holds the numeric tolerance bands. These are empirically
// chosen defaults, not hard invariants; tune with care.
type ToleranceConfig struct {
	ExactPct        float64 `yaml:"exact_pct" json:"exact_pct"`                 // <= exact match
	ClosePct        float64 `yaml:"close_pct" json:"close_pct"`                 // <= close match
	NotablePct      float64 `yaml:"notable_pct" json:"notable_pct"`             // <= notable, above = significant
	MetricWindowPct float64 `yaml:"metric_window_pct" json:"metric_window_pct"` // Window for locating an absolute value in evidence
	GrowthWindowPP  float64 `yaml:"growth_window_pp" json:"growth_window_pp"`   // Window for locating a growth rate, percentage points
	ArithmeticPct   float64 `yaml:"arithmetic_pct" json:"arithmetic_pct"`       // Verify multiplication/division/sum
}

// OutputConfig controls report rendering.
type OutputConfig struct {
	JSON     bool `yaml:"json" json:"json"`
	Markdown bool `yaml:"markdown" json:"markdown"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Providers:      []string{"openai", "anthropic"},
			TimeoutSeconds: 30,
			MaxTokens:      1500,
		},
		Cache: CacheConfig{
			Backend:          "sqlite",
			MemoryTTLMinutes: 30,
			DurableTTLHours:  24,
		},
		Concurrency: ConcurrencyConfig{
			SubClaimWorkers:      4,
			SourceWorkers:        5,
			SourceTimeoutSeconds: 15,
			RequestsPerSecond:    4,
		},
		Tolerance: DefaultTolerance(),
		Output: OutputConfig{
			JSON:     true,
			Markdown: true,
		},
	}
}

// DefaultTolerance returns the default tolerance bands.
func DefaultTolerance() ToleranceConfig {
	return ToleranceConfig{
		ExactPct:        1,
		ClosePct:        5,
		NotablePct:      15,
		MetricWindowPct: 60,
		GrowthWindowPP:  20,
		ArithmeticPct:   2,
	}
}
