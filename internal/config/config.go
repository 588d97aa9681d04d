package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       App       `mapstructure:"app"`
	Store     Store     `mapstructure:"store"`
	Wikipedia Wikipedia `mapstructure:"wikipedia"`
	WebSource WebSource `mapstructure:"web_source"`
	LLM       LLM       `mapstructure:"llm"`
	Expansion Expansion `mapstructure:"expansion"`
	Retrieval Retrieval `mapstructure:"retrieval"`
	Pack      Pack      `mapstructure:"pack"`
}

// App holds top-level application settings.
type App struct {
	Debug      bool   `mapstructure:"debug"`
	LogLevel   string `mapstructure:"log_level"`
	DataDir    string `mapstructure:"data_dir"`
	ConfigFile string `mapstructure:"config_file"`
}

// Store configures the embedded graph store (SQLite-backed pack.db).
type Store struct {
	Path          string        `mapstructure:"path"`
	BusyTimeout   time.Duration `mapstructure:"busy_timeout"`
	EmbeddingDims int           `mapstructure:"embedding_dims"`
}

// Wikipedia configures the Wikipedia Action API content source.
type Wikipedia struct {
	BaseURL         string        `mapstructure:"base_url"`
	UserAgent       string        `mapstructure:"user_agent"`
	RateLimitDelay  time.Duration `mapstructure:"rate_limit_delay"`
	MaxRetries      int           `mapstructure:"max_retries"`
	Timeout         time.Duration `mapstructure:"timeout"`
	CacheEnabled    bool          `mapstructure:"cache_enabled"`
}

// WebSource configures the generic web content source.
type WebSource struct {
	UserAgent         string        `mapstructure:"user_agent"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RateLimitDelay    time.Duration `mapstructure:"rate_limit_delay"`
	MinSectionChars   int           `mapstructure:"min_section_chars"`
	MinWordCount      int           `mapstructure:"min_word_count"`
	AllowedSchemes    []string      `mapstructure:"allowed_schemes"`
}

// LLM configures the extraction / query-planning / synthesis client.
type LLM struct {
	Model             string        `mapstructure:"model"`
	FastModel         string        `mapstructure:"fast_model"`
	EmbeddingModel    string        `mapstructure:"embedding_model"`
	EmbeddingDims     int32         `mapstructure:"embedding_dims"`
	MaxTokens         int32         `mapstructure:"max_tokens"`
	Temperature       float32       `mapstructure:"temperature"`
	ExtractionTimeout time.Duration `mapstructure:"extraction_timeout"`
	SynthesisTimeout  time.Duration `mapstructure:"synthesis_timeout"`
	QueryExpandTimeout time.Duration `mapstructure:"query_expand_timeout"`
}

// Expansion configures the expansion driver loop.
type Expansion struct {
	MaxDepth      int           `mapstructure:"max_depth"`
	BatchSize     int           `mapstructure:"batch_size"`
	ClaimTimeout  time.Duration `mapstructure:"claim_timeout"`
	TargetCount   int           `mapstructure:"target_count"`
	MaxIterations int           `mapstructure:"max_iterations"`
	MaxRetries    int           `mapstructure:"max_retries"`
	FetchPoolSize int           `mapstructure:"fetch_pool_size"`
	LLMPoolSize   int           `mapstructure:"llm_pool_size"`
	ChunkSize     int           `mapstructure:"chunk_size"`
	ChunkOverlap  int           `mapstructure:"chunk_overlap"`
}

// Retrieval configures the retrieval engine's thresholds and toggles.
type Retrieval struct {
	SimilarityThreshold  float64 `mapstructure:"similarity_threshold"`
	ContentQualityMin    float64 `mapstructure:"content_quality_min"`
	VectorWeight         float64 `mapstructure:"vector_weight"`
	GraphWeight          float64 `mapstructure:"graph_weight"`
	KeywordWeight        float64 `mapstructure:"keyword_weight"`
	RerankVectorWeight   float64 `mapstructure:"rerank_vector_weight"`
	RerankGraphWeight    float64 `mapstructure:"rerank_graph_weight"`
	RRFK                 int     `mapstructure:"rrf_k"`
	PlanCacheSize        int     `mapstructure:"plan_cache_size"`
	EnableReranker       bool    `mapstructure:"enable_reranker"`
	EnableMultiDoc       bool    `mapstructure:"enable_multidoc"`
	EnableFewShot        bool    `mapstructure:"enable_fewshot"`
	EnableMultiQuery     bool    `mapstructure:"enable_multi_query"`
	EnableCypherFallback bool    `mapstructure:"enable_cypher_fallback"`
	FewShotExamplesPath  string  `mapstructure:"few_shot_examples_path"`
}

// Pack configures where packs are installed/looked up.
type Pack struct {
	InstallDir string `mapstructure:"install_dir"`
}

var globalConfig *Config

// Load reads configuration from defaults, file, and environment, in that
// order of increasing precedence, mirroring the project's existing
// viper/godotenv convention.
func Load(configFile string) (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Printf("Warning: Error loading .env file: %v\n", err)
		}
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".kgpack")
		viper.SetConfigType("yaml")
	}

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	globalConfig = cfg
	return cfg, nil
}

// Get returns the global configuration, loading it with defaults if
// necessary.
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load("")
		if err != nil {
			panic(fmt.Sprintf("failed to load configuration: %v", err))
		}
		return cfg
	}
	return globalConfig
}

// Reset clears the cached global configuration; used by tests that need a
// fresh Load.
func Reset() {
	globalConfig = nil
}

func setDefaults() {
	viper.SetDefault("app.debug", false)
	viper.SetDefault("app.log_level", "info")
	viper.SetDefault("app.data_dir", ".kgpack-cache")

	viper.SetDefault("store.path", "pack.db")
	viper.SetDefault("store.busy_timeout", "5s")
	viper.SetDefault("store.embedding_dims", 384)

	viper.SetDefault("wikipedia.base_url", "https://en.wikipedia.org/w/api.php")
	viper.SetDefault("wikipedia.user_agent", "kgpack/1.0 (Knowledge Pack Builder)")
	viper.SetDefault("wikipedia.rate_limit_delay", "100ms")
	viper.SetDefault("wikipedia.max_retries", 3)
	viper.SetDefault("wikipedia.timeout", "30s")
	viper.SetDefault("wikipedia.cache_enabled", false)

	viper.SetDefault("web_source.user_agent", "kgpack/1.0 (Knowledge Pack Builder)")
	viper.SetDefault("web_source.timeout", "30s")
	viper.SetDefault("web_source.rate_limit_delay", "500ms")
	viper.SetDefault("web_source.min_section_chars", 100)
	viper.SetDefault("web_source.min_word_count", 200)
	viper.SetDefault("web_source.allowed_schemes", []string{"http", "https"})

	viper.SetDefault("llm.model", "gemini-flash-lite-latest")
	viper.SetDefault("llm.fast_model", "gemini-flash-lite-latest")
	viper.SetDefault("llm.embedding_model", "gemini-embedding-001")
	viper.SetDefault("llm.embedding_dims", 384)
	viper.SetDefault("llm.max_tokens", 2048)
	viper.SetDefault("llm.temperature", 0.3)
	viper.SetDefault("llm.extraction_timeout", "30s")
	viper.SetDefault("llm.synthesis_timeout", "30s")
	viper.SetDefault("llm.query_expand_timeout", "10s")

	viper.SetDefault("expansion.max_depth", 2)
	viper.SetDefault("expansion.batch_size", 10)
	viper.SetDefault("expansion.claim_timeout", "300s")
	viper.SetDefault("expansion.target_count", 100)
	viper.SetDefault("expansion.max_iterations", 1000)
	viper.SetDefault("expansion.max_retries", 3)
	viper.SetDefault("expansion.fetch_pool_size", 10)
	viper.SetDefault("expansion.llm_pool_size", 20)
	viper.SetDefault("expansion.chunk_size", 2000)
	viper.SetDefault("expansion.chunk_overlap", 400)

	viper.SetDefault("retrieval.similarity_threshold", 0.6)
	viper.SetDefault("retrieval.content_quality_min", 0.3)
	viper.SetDefault("retrieval.vector_weight", 0.5)
	viper.SetDefault("retrieval.graph_weight", 0.3)
	viper.SetDefault("retrieval.keyword_weight", 0.2)
	viper.SetDefault("retrieval.rerank_vector_weight", 0.6)
	viper.SetDefault("retrieval.rerank_graph_weight", 0.4)
	viper.SetDefault("retrieval.rrf_k", 60)
	viper.SetDefault("retrieval.plan_cache_size", 128)
	viper.SetDefault("retrieval.enable_reranker", false)
	viper.SetDefault("retrieval.enable_multidoc", false)
	viper.SetDefault("retrieval.enable_fewshot", false)
	viper.SetDefault("retrieval.enable_multi_query", false)
	viper.SetDefault("retrieval.enable_cypher_fallback", false)

	viper.SetDefault("pack.install_dir", "")
}

func validateConfig(cfg *Config) error {
	if cfg.Expansion.MaxDepth < 0 {
		return fmt.Errorf("expansion.max_depth must be >= 0")
	}
	if cfg.Expansion.BatchSize <= 0 {
		return fmt.Errorf("expansion.batch_size must be > 0")
	}
	if cfg.Retrieval.SimilarityThreshold < 0 || cfg.Retrieval.SimilarityThreshold > 1 {
		return fmt.Errorf("retrieval.similarity_threshold must be in [0,1]")
	}
	if cfg.Pack.InstallDir == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			cfg.Pack.InstallDir = home + "/.kgpack/packs"
		}
	}
	return nil
}
