package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := Config{
		HTTP:      HTTPConfig{Port: 8080},
		Catalog:   CatalogConfig{Addrs: []string{"localhost:6379"}},
		Embedding: EmbeddingConfig{BaseURL: "http://localhost:8081/v1"},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingRedisAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Catalog.Addrs = nil

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing redis addrs")
	}
	expected := `catalog.addrs is required for driver "redis"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_SQLiteNeedsNoAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Catalog.Driver = DriverSQLite
	cfg.Catalog.Addrs = nil

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Catalog.Driver = "postgres"

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestValidate_DistanceMetric(t *testing.T) {
	for _, m := range []string{"cosine", "l2", "ip"} {
		t.Run(m, func(t *testing.T) {
			cfg := validConfig()
			cfg.Catalog.DistanceMetric = m
			if err := cfg.Validate(); err != nil {
				t.Fatalf("unexpected error for %q: %v", m, err)
			}
		})
	}

	cfg := validConfig()
	cfg.Catalog.DistanceMetric = "hamming"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown metric")
	}
}

func TestValidate_MissingEmbeddingURL(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.BaseURL = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing embedding.base_url")
	}
}

func TestValidate_BM25B(t *testing.T) {
	cfg := validConfig()
	cfg.Retrieval.BM25B = 1.5

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for bm25_b > 1")
	}
}

func TestValidate_EmptySynonym(t *testing.T) {
	cfg := validConfig()
	cfg.Categories.Synonyms = map[string][]string{"graphics": {"shaders", " "}}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for empty synonym")
	}
	if !strings.Contains(err.Error(), "categories.synonyms.graphics") {
		t.Errorf("error should name the category, got %q", err.Error())
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 30 {
		t.Errorf("expected WriteTimeoutSec=30, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Catalog.Driver != DriverRedis {
		t.Errorf("expected Driver=redis, got %q", cfg.Catalog.Driver)
	}
	if cfg.Catalog.KeyPrefix != "modcurator:" {
		t.Errorf("expected KeyPrefix='modcurator:', got %q", cfg.Catalog.KeyPrefix)
	}
	if cfg.Catalog.Collection != "mods" {
		t.Errorf("expected Collection=mods, got %q", cfg.Catalog.Collection)
	}
	if cfg.Embedding.Dimensions != 384 {
		t.Errorf("expected Dimensions=384, got %d", cfg.Embedding.Dimensions)
	}
	if cfg.Embedding.MemoSize != 1000 {
		t.Errorf("expected MemoSize=1000, got %d", cfg.Embedding.MemoSize)
	}
	if cfg.Retrieval.BM25K1 != 1.5 || cfg.Retrieval.BM25B != 0.75 {
		t.Errorf("expected bm25 k1=1.5 b=0.75, got k1=%g b=%g", cfg.Retrieval.BM25K1, cfg.Retrieval.BM25B)
	}
	if cfg.Retrieval.DescriptionLimit != 500 {
		t.Errorf("expected DescriptionLimit=500, got %d", cfg.Retrieval.DescriptionLimit)
	}
	if cfg.Retrieval.KeywordFetchMultiplier != 3 {
		t.Errorf("expected KeywordFetchMultiplier=3, got %d", cfg.Retrieval.KeywordFetchMultiplier)
	}
	if cfg.Retrieval.DefaultTargetCount != 100 {
		t.Errorf("expected DefaultTargetCount=100, got %d", cfg.Retrieval.DefaultTargetCount)
	}
	if cfg.Retrieval.DefaultMaxPerCategory != 50 {
		t.Errorf("expected DefaultMaxPerCategory=50, got %d", cfg.Retrieval.DefaultMaxPerCategory)
	}
	if len(cfg.Retrieval.DiversityExempt) != 2 {
		t.Errorf("expected 2 exempt categories, got %v", cfg.Retrieval.DiversityExempt)
	}
	if cfg.Retrieval.OutdatedThreshold != 3 {
		t.Errorf("expected OutdatedThreshold=3, got %d", cfg.Retrieval.OutdatedThreshold)
	}
	if cfg.Resolver.MaxDepth != 3 {
		t.Errorf("expected MaxDepth=3, got %d", cfg.Resolver.MaxDepth)
	}
	if cfg.Resolver.FabricBridgeID != "P7dR8mSH" {
		t.Errorf("expected FabricBridgeID=P7dR8mSH, got %q", cfg.Resolver.FabricBridgeID)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:      HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Catalog:   CatalogConfig{Driver: DriverSQLite, KeyPrefix: "custom:", Collection: "c"},
		Retrieval: RetrievalConfig{BM25K1: 1.2, DiversityExempt: []string{}},
		Resolver:  ResolverConfig{MaxDepth: 5},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Catalog.Driver != DriverSQLite {
		t.Errorf("expected Driver=sqlite, got %q", cfg.Catalog.Driver)
	}
	if cfg.Catalog.KeyPrefix != "custom:" {
		t.Errorf("expected KeyPrefix='custom:', got %q", cfg.Catalog.KeyPrefix)
	}
	if cfg.Retrieval.BM25K1 != 1.2 {
		t.Errorf("expected BM25K1=1.2, got %g", cfg.Retrieval.BM25K1)
	}
	if len(cfg.Retrieval.DiversityExempt) != 0 {
		t.Errorf("explicit empty exempt list should stay empty, got %v", cfg.Retrieval.DiversityExempt)
	}
	if cfg.Resolver.MaxDepth != 5 {
		t.Errorf("expected MaxDepth=5, got %d", cfg.Resolver.MaxDepth)
	}
}

func TestDurations(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.CacheTTLSec = 60

	if got := cfg.Catalog.ReadinessTimeoutDuration(); got != 10*time.Second {
		t.Errorf("readiness = %v, want 10s", got)
	}
	if got := cfg.Catalog.RequestTimeoutDuration(); got != 5*time.Second {
		t.Errorf("request = %v, want 5s", got)
	}
	if got := cfg.Embedding.CacheTTL(); got != time.Minute {
		t.Errorf("ttl = %v, want 1m", got)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("MODCURATOR_TEST_PORT", "9090")

	got := string(expandEnvVars([]byte("a: ${MODCURATOR_TEST_PORT}\nb: ${MODCURATOR_TEST_UNSET:-fallback}\nc: ${MODCURATOR_TEST_UNSET}")))
	want := "a: 9090\nb: fallback\nc: "
	if got != want {
		t.Errorf("expandEnvVars:\ngot:  %q\nwant: %q", got, want)
	}
}

func TestParse(t *testing.T) {
	t.Setenv("MODCURATOR_TEST_KEY", "secret")

	data := []byte(`
http:
  port: 8080
auth:
  api_keys: ["${MODCURATOR_TEST_KEY}"]
catalog:
  driver: sqlite
  sqlite_path: ""
embedding:
  base_url: ${MODCURATOR_TEST_URL:-http://localhost:8081/v1}
  query_instruction: "query: "
categories:
  synonyms:
    optimization: [performance, fps]
`)

	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(cfg.Auth.APIKeys) != 1 || cfg.Auth.APIKeys[0] != "secret" {
		t.Errorf("api keys = %v", cfg.Auth.APIKeys)
	}
	if cfg.Embedding.BaseURL != "http://localhost:8081/v1" {
		t.Errorf("base_url = %q", cfg.Embedding.BaseURL)
	}
	if cfg.Embedding.QueryInstruction != "query: " {
		t.Errorf("query_instruction = %q", cfg.Embedding.QueryInstruction)
	}
	if got := cfg.Categories.Synonyms["optimization"]; len(got) != 2 {
		t.Errorf("synonyms = %v", got)
	}
	if cfg.Retrieval.DefaultTargetCount != 100 {
		t.Errorf("defaults not applied: target count %d", cfg.Retrieval.DefaultTargetCount)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("http: [")); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := Parse([]byte("http:\n  port: 8080\n")); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	content := "http:\n  port: 8080\ncatalog:\n  driver: sqlite\nembedding:\n  base_url: http://x/v1\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Catalog.Driver != DriverSQLite {
		t.Errorf("driver = %q", cfg.Catalog.Driver)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if got := GetEnv(); got != "local" {
		t.Errorf("GetEnv() = %q, want local", got)
	}
	t.Setenv("ENV", "prod")
	if got := GetEnv(); got != "prod" {
		t.Errorf("GetEnv() = %q, want prod", got)
	}
}

func TestLoad_BundledConfigs(t *testing.T) {
	t.Setenv("EMBEDDING_BASE_URL", "http://embeddings:8081/v1")
	t.Setenv("CATALOG_DRIVER", "")

	local, err := Load("local")
	if err != nil {
		t.Fatalf("load local: %v", err)
	}
	if local.Catalog.Driver != DriverSQLite {
		t.Errorf("local driver = %q, want %q", local.Catalog.Driver, DriverSQLite)
	}
	if got := len(local.Categories.Synonyms["optimization"]); got == 0 {
		t.Error("local config has no optimization synonyms")
	}

	prod, err := Load("prod")
	if err != nil {
		t.Fatalf("load prod: %v", err)
	}
	if prod.Catalog.Driver != DriverRedis {
		t.Errorf("prod driver = %q, want %q", prod.Catalog.Driver, DriverRedis)
	}
	if prod.Embedding.BaseURL != "http://embeddings:8081/v1" {
		t.Errorf("prod base_url = %q", prod.Embedding.BaseURL)
	}
	if prod.Resolver.FabricBridgeID != "P7dR8mSH" {
		t.Errorf("prod fabric bridge = %q", prod.Resolver.FabricBridgeID)
	}
}
