package redis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/redis/rueidis"

	"github.com/TheVirusNVGM/modcurator/internal/db"
)

var _ db.Store = (*Store)(nil)

const defaultDialTimeout = 5 * time.Second

// Config holds connection parameters for a Redis store.
type Config struct {
	Addrs    []string
	Username string
	Password string
	DB       int
	// KeyPrefix namespaces every document key and index name.
	KeyPrefix   string
	DialTimeout time.Duration
}

// Store is the catalog on Redis 8+ (RedisJSON documents, Query Engine
// indexes, plain string keys for the embedding cache).
type Store struct {
	client rueidis.Client
	prefix string
}

// NewStore connects to Redis.
func NewStore(cfg Config) (*Store, error) {
	opt, err := clientOption(cfg)
	if err != nil {
		return nil, err
	}
	client, err := rueidis.NewClient(opt)
	if err != nil {
		return nil, fmt.Errorf("connect redis %s: %w", strings.Join(opt.InitAddress, ","), err)
	}
	return &Store{client: client, prefix: cfg.KeyPrefix}, nil
}

// clientOption drops blank addresses. Client-side caching stays off and
// replies are RESP2, the array layout parseResult reads FT.SEARCH with.
func clientOption(cfg Config) (rueidis.ClientOption, error) {
	addrs := make([]string, 0, len(cfg.Addrs))
	for _, a := range cfg.Addrs {
		if a = strings.TrimSpace(a); a != "" {
			addrs = append(addrs, a)
		}
	}
	if len(addrs) == 0 {
		return rueidis.ClientOption{}, errors.New("redis: at least one address is required")
	}

	dial := cfg.DialTimeout
	if dial <= 0 {
		dial = defaultDialTimeout
	}
	return rueidis.ClientOption{
		InitAddress:  addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
		AlwaysRESP2:  true,
		Dialer:       net.Dialer{Timeout: dial},
	}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.do(ctx, s.b().Ping().Build()).Error(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

func (s *Store) Close() {
	s.client.Close()
}

func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	return db.WaitReady(ctx, s, timeout)
}

// DocumentKey is <prefix><collection>:<id>.
func (s *Store) DocumentKey(collection, id string) string {
	return s.prefix + collection + ":" + id
}

// IndexName is <prefix><collection>:idx.
func (s *Store) IndexName(collection string) string {
	return s.prefix + collection + ":idx"
}

func (s *Store) idFromKey(collection, key string) string {
	return strings.TrimPrefix(key, s.prefix+collection+":")
}

func (s *Store) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return s.client.Do(ctx, cmd)
}

func (s *Store) b() rueidis.Builder {
	return s.client.B()
}

// serverErrContains matches a Redis error reply, ignoring case.
func serverErrContains(err error, substr string) bool {
	re, ok := rueidis.IsRedisErr(err)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(re.Error()), strings.ToLower(substr))
}
