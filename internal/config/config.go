package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Catalog drivers.
const (
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
)

// Config holds the modcurator configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Auth       AuthConfig       `yaml:"auth"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Resolver   ResolverConfig   `yaml:"resolver"`
	Categories CategoriesConfig `yaml:"categories"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings. No keys disables auth.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// CatalogConfig holds catalog storage settings.
type CatalogConfig struct {
	Driver           string   `yaml:"driver"` // redis, sqlite (default: redis)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	SQLitePath       string   `yaml:"sqlite_path"`
	KeyPrefix        string   `yaml:"key_prefix"`
	Collection       string   `yaml:"collection"`
	DistanceMetric   string   `yaml:"distance_metric"`
	HNSWM            int      `yaml:"hnsw_m"`
	HNSWEFConstruct  int      `yaml:"hnsw_ef_construction"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	RequestTimeout   int      `yaml:"request_timeout_sec"`
}

// EmbeddingConfig holds query embedding settings.
type EmbeddingConfig struct {
	Provider         string `yaml:"provider"`
	BaseURL          string `yaml:"base_url"`
	APIKey           string `yaml:"api_key"`
	Model            string `yaml:"model"`
	Dimensions       int    `yaml:"dimensions"`
	SendDimensions   bool   `yaml:"send_dimensions"`
	QueryInstruction string `yaml:"query_instruction"`
	CacheTTLSec      int    `yaml:"cache_ttl_sec"` // 0 = no expiry
	MemoSize         int    `yaml:"memo_size"`
}

// RetrievalConfig tunes lexical scoring and post-processing.
type RetrievalConfig struct {
	BM25K1                 float64  `yaml:"bm25_k1"`
	BM25B                  float64  `yaml:"bm25_b"`
	DescriptionLimit       int      `yaml:"description_limit"`
	KeywordFetchMultiplier int      `yaml:"keyword_fetch_multiplier"`
	ParallelQueries        int      `yaml:"parallel_queries"`
	DefaultTargetCount     int      `yaml:"default_target_count"`
	DefaultMaxPerCategory  int      `yaml:"default_max_per_category"`
	DiversityExempt        []string `yaml:"diversity_exempt"`
	OutdatedThreshold      int      `yaml:"outdated_threshold"`
}

// ResolverConfig tunes dependency expansion.
type ResolverConfig struct {
	MaxDepth       int    `yaml:"max_depth"`
	FabricBridgeID string `yaml:"fabric_bridge_id"`
}

// CategoriesConfig holds the category synonym table.
type CategoriesConfig struct {
	Synonyms map[string][]string `yaml:"synonyms"`
}

// ReadinessTimeoutDuration returns the catalog readiness wait.
func (c CatalogConfig) ReadinessTimeoutDuration() time.Duration {
	return time.Duration(c.ReadinessTimeout) * time.Second
}

// RequestTimeoutDuration returns the per-request catalog timeout.
func (c CatalogConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// CacheTTL returns the embedding cache TTL; zero means no expiry.
func (c EmbeddingConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSec) * time.Second
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse expands env variables, decodes YAML, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	if c.Catalog.Driver == "" {
		c.Catalog.Driver = DriverRedis
	}
	if c.Catalog.KeyPrefix == "" {
		c.Catalog.KeyPrefix = "modcurator:"
	}
	if c.Catalog.Collection == "" {
		c.Catalog.Collection = "mods"
	}
	if c.Catalog.DistanceMetric == "" {
		c.Catalog.DistanceMetric = "cosine"
	}
	if c.Catalog.HNSWM <= 0 {
		c.Catalog.HNSWM = 16
	}
	if c.Catalog.HNSWEFConstruct <= 0 {
		c.Catalog.HNSWEFConstruct = 200
	}
	if c.Catalog.ReadinessTimeout <= 0 {
		c.Catalog.ReadinessTimeout = 10
	}
	if c.Catalog.RequestTimeout <= 0 {
		c.Catalog.RequestTimeout = 5
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "sentence-transformers/all-MiniLM-L6-v2"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 384
	}
	if c.Embedding.MemoSize <= 0 {
		c.Embedding.MemoSize = 1000
	}

	r := &c.Retrieval
	if r.BM25K1 <= 0 {
		r.BM25K1 = 1.5
	}
	if r.BM25B <= 0 {
		r.BM25B = 0.75
	}
	if r.DescriptionLimit <= 0 {
		r.DescriptionLimit = 500
	}
	if r.KeywordFetchMultiplier <= 0 {
		r.KeywordFetchMultiplier = 3
	}
	if r.ParallelQueries <= 0 {
		r.ParallelQueries = 4
	}
	if r.DefaultTargetCount <= 0 {
		r.DefaultTargetCount = 100
	}
	if r.DefaultMaxPerCategory <= 0 {
		r.DefaultMaxPerCategory = 50
	}
	if r.DiversityExempt == nil {
		r.DiversityExempt = []string{"optimization", "performance"}
	}
	if r.OutdatedThreshold <= 0 {
		r.OutdatedThreshold = 3
	}

	if c.Resolver.MaxDepth <= 0 {
		c.Resolver.MaxDepth = 3
	}
	if c.Resolver.FabricBridgeID == "" {
		c.Resolver.FabricBridgeID = "P7dR8mSH"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Catalog.Driver {
	case DriverRedis:
		if len(c.Catalog.Addrs) == 0 {
			return fmt.Errorf("catalog.addrs is required for driver %q", DriverRedis)
		}
	case DriverSQLite:
		// empty path opens an in-memory catalog
	default:
		return fmt.Errorf("catalog.driver must be %q or %q, got %q", DriverRedis, DriverSQLite, c.Catalog.Driver)
	}
	switch c.Catalog.DistanceMetric {
	case "cosine", "l2", "ip":
	default:
		return fmt.Errorf("catalog.distance_metric must be cosine, l2 or ip, got %q", c.Catalog.DistanceMetric)
	}
	if c.Embedding.BaseURL == "" {
		return fmt.Errorf("embedding.base_url is required")
	}
	if c.Embedding.CacheTTLSec < 0 {
		return fmt.Errorf("embedding.cache_ttl_sec must not be negative, got %d", c.Embedding.CacheTTLSec)
	}
	if c.Retrieval.BM25B > 1 {
		return fmt.Errorf("retrieval.bm25_b must be in (0, 1], got %g", c.Retrieval.BM25B)
	}
	for name, syns := range c.Categories.Synonyms {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("categories.synonyms has an empty category name")
		}
		for _, s := range syns {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("categories.synonyms.%s has an empty synonym", name)
			}
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
