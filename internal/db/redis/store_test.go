package redis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/TheVirusNVGM/modcurator/internal/db"
)

const testPrefix = "modcurator:"

// --- client.go tests ---

func TestPing_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG")))

	s := NewStoreForTest(c, testPrefix)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPing_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c, testPrefix)
	if err := s.Ping(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestClientOption(t *testing.T) {
	opt, err := clientOption(Config{Addrs: []string{" ", "localhost:6379 "}, Password: "secret"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(opt.InitAddress) != 1 || opt.InitAddress[0] != "localhost:6379" {
		t.Errorf("InitAddress = %v", opt.InitAddress)
	}
	if !opt.DisableCache || !opt.AlwaysRESP2 {
		t.Error("client cache must be off and RESP2 forced")
	}
	if opt.Dialer.Timeout != defaultDialTimeout {
		t.Errorf("dial timeout = %v, want %v", opt.Dialer.Timeout, defaultDialTimeout)
	}

	opt, err = clientOption(Config{Addrs: []string{"a:1"}, DialTimeout: time.Second})
	if err != nil || opt.Dialer.Timeout != time.Second {
		t.Errorf("custom dial timeout not applied: %v %v", opt.Dialer.Timeout, err)
	}

	if _, err := clientOption(Config{Addrs: []string{""}}); err == nil {
		t.Fatal("expected error for blank addresses")
	}
}

func TestKeys(t *testing.T) {
	s := NewStoreForTest(nil, testPrefix)
	if got := s.DocumentKey("mods", "AANobbMI"); got != "modcurator:mods:AANobbMI" {
		t.Errorf("DocumentKey = %q", got)
	}
	if got := s.IndexName("mods"); got != "modcurator:mods:idx" {
		t.Errorf("IndexName = %q", got)
	}
	if got := s.idFromKey("mods", "modcurator:mods:AANobbMI"); got != "AANobbMI" {
		t.Errorf("idFromKey = %q", got)
	}
}

// --- kv.go tests ---

func TestGet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "mykey")).
		Return(mock.Result(mock.RedisBlobString("value")))

	s := NewStoreForTest(c, testPrefix)
	data, err := s.Get(context.Background(), "mykey")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "value" {
		t.Errorf("expected value, got %q", data)
	}
}

func TestGet_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "mykey")).
		Return(mock.Result(mock.RedisNil()))

	s := NewStoreForTest(c, testPrefix)
	_, err := s.Get(context.Background(), "mykey")
	if !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestGet_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "mykey")).
		Return(mock.ErrorResult(errors.New("connection refused")))

	s := NewStoreForTest(c, testPrefix)
	_, err := s.Get(context.Background(), "mykey")
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpGet {
		t.Errorf("expected db.Error with op GET, got %v", err)
	}
}

func TestSet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "mykey", "myvalue")).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreForTest(c, testPrefix)
	if err := s.Set(context.Background(), "mykey", []byte("myvalue")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSetWithTTL_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "SET" && cmd[1] == "mykey" && cmd[3] == "EX" && cmd[4] == "60"
		})).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreForTest(c, testPrefix)
	if err := s.SetWithTTL(context.Background(), "mykey", []byte("v"), time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSetWithTTL_ExpiryArgs(t *testing.T) {
	tests := []struct {
		name string
		ttl  time.Duration
		want []string
	}{
		{"hour", time.Hour, []string{"SET", "k", "v", "EX", "3600"}},
		{"zero", 0, []string{"SET", "k", "v"}},
		{"negative", -time.Second, []string{"SET", "k", "v"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			c := mock.NewClient(ctrl)

			c.EXPECT().
				Do(gomock.Any(), mock.Match(tt.want...)).
				Return(mock.Result(mock.RedisString("OK")))

			s := NewStoreForTest(c, testPrefix)
			if err := s.SetWithTTL(context.Background(), "k", []byte("v"), tt.ttl); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestSetWithTTL_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "k", "v", "EX", "60")).
		Return(mock.ErrorResult(errors.New("READONLY")))

	s := NewStoreForTest(c, testPrefix)
	err := s.SetWithTTL(context.Background(), "k", []byte("v"), time.Minute)
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpSet {
		t.Fatalf("expected set error, got %v", err)
	}
}

// --- json.go tests ---

func TestMGet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("JSON.MGET", "modcurator:mods:a", "modcurator:mods:b", "$")).
		Return(mock.Result(mock.RedisArray(
			mock.RedisString(`[{"id":"a"}]`),
			mock.RedisNil(),
		)))

	s := NewStoreForTest(c, testPrefix)
	docs, err := s.MGet(context.Background(), "mods", []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(docs))
	}
	if string(docs[0]) != `[{"id":"a"}]` {
		t.Errorf("docs[0] = %q", docs[0])
	}
	if docs[1] != nil {
		t.Errorf("expected nil for missing key, got %q", docs[1])
	}
}

func TestMGet_Empty(t *testing.T) {
	s := NewStoreForTest(nil, testPrefix)
	docs, err := s.MGet(context.Background(), "mods", nil)
	if err != nil || docs != nil {
		t.Fatalf("expected nil, nil; got %v, %v", docs, err)
	}
}

func TestMGet_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "JSON.MGET" })).
		Return(mock.ErrorResult(errors.New("connection refused")))

	s := NewStoreForTest(c, testPrefix)
	_, err := s.MGet(context.Background(), "mods", []string{"a"})
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpJSONMGet {
		t.Errorf("expected db.Error with op JSON.MGET, got %v", err)
	}
}

func TestPutMulti_WithEmbedding(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisString("OK")),
			mock.Result(mock.RedisString("OK")),
			mock.Result(mock.RedisString("OK")),
		})

	s := NewStoreForTest(c, testPrefix)
	err := s.PutMulti(context.Background(), "mods", []db.DocumentItem{
		{ID: "a", Body: []byte(`{"id":"a"}`), Embedding: []float32{0.1, 0.2}},
		{ID: "b", Body: []byte(`{"id":"b"}`)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPutMulti_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{mock.Result(mock.RedisError("ERR new objects must be created at the root"))})

	s := NewStoreForTest(c, testPrefix)
	err := s.PutMulti(context.Background(), "mods", []db.DocumentItem{{ID: "a", Body: []byte(`{}`)}})
	if err == nil {
		t.Fatal("expected error")
	}
}

// --- index.go tests ---

func TestCreateIndex_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			joined := strings.Join(cmd, " ")
			return cmd[0] == "FT.CREATE" &&
				strings.Contains(joined, "ON JSON PREFIX 1 modcurator:mods:") &&
				strings.Contains(joined, "$.embedding AS vector VECTOR HNSW")
		})).
		Return(mock.Result(mock.RedisString("OK")))

	def, err := db.NewIndex("modcurator:mods:idx").
		Prefix("modcurator:mods:").
		Text("$.name", "name").
		Vector("$.embedding", "vector", db.HNSW{Dim: 384, Distance: db.DistanceCosine, M: 16, EFConstruct: 200}).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	s := NewStoreForTest(c, testPrefix)
	if err := s.CreateIndex(context.Background(), def); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateIndex_AlreadyExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.CREATE"
		})).
		Return(mock.Result(mock.RedisError("Index already exists")))

	s := NewStoreForTest(c, testPrefix)
	idx := &db.IndexDefinition{
		Name:   "test:idx",
		Fields: []db.IndexField{{Path: "$.name", Attr: "name", Kind: db.FieldText}},
	}
	err := s.CreateIndex(context.Background(), idx)
	if !errors.Is(err, db.ErrIndexExists) {
		t.Errorf("expected ErrIndexExists, got %v", err)
	}
}

func TestIndexExists(t *testing.T) {
	tests := []struct {
		name string
		resp rueidis.RedisResult
		want bool
	}{
		{"present", mock.Result(mock.RedisArray(mock.RedisString("index_name"), mock.RedisString("test:idx"))), true},
		{"unknown index", mock.Result(mock.RedisError("Unknown Index name")), false},
		{"no such index", mock.Result(mock.RedisError("test:idx: no such index")), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			c := mock.NewClient(ctrl)
			c.EXPECT().Do(gomock.Any(), mock.Match("FT.INFO", "test:idx")).Return(tt.resp)

			s := NewStoreForTest(c, testPrefix)
			got, err := s.IndexExists(context.Background(), "test:idx")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("IndexExists = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCreateArgs(t *testing.T) {
	def, err := db.NewIndex("modcurator:mods:idx").
		Prefix("modcurator:mods:").
		Text("$.summary", "summary").
		Numeric("$.downloads", "downloads").
		Vector("$.embedding", "vector", db.HNSW{Dim: 384, M: 16, EFConstruct: 200}).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	args, err := createArgs(def)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "modcurator:mods:idx ON JSON PREFIX 1 modcurator:mods: SCHEMA " +
		"$.summary AS summary TEXT $.downloads AS downloads NUMERIC " +
		"$.embedding AS vector VECTOR HNSW 10 TYPE FLOAT32 DIM 384 DISTANCE_METRIC COSINE M 16 EF_CONSTRUCTION 200"
	if got := strings.Join(args, " "); got != want {
		t.Errorf("args = %q\nwant   %q", got, want)
	}
}

func TestCreateArgs_Errors(t *testing.T) {
	if _, err := createArgs(&db.IndexDefinition{Name: "idx"}); err == nil {
		t.Error("expected error for an index without fields")
	}
	bad := &db.IndexDefinition{
		Name:   "idx",
		Fields: []db.IndexField{{Path: "$.x", Attr: "x", Kind: db.FieldKind(99)}},
	}
	if _, err := createArgs(bad); err == nil {
		t.Error("expected error for unknown field kind")
	}
}

// --- search.go tests ---

func TestSearchKNN_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH" && cmd[1] == "modcurator:mods:idx" &&
				cmd[2] == "*=>[KNN 5 @vector $BLOB]"
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(2),
			mock.RedisString("modcurator:mods:a"),
			mock.RedisArray(
				mock.RedisString("$"), mock.RedisString(`{"id":"a"}`),
				mock.RedisString("__vector_score"), mock.RedisString("0.25"),
			),
			mock.RedisString("modcurator:mods:b"),
			mock.RedisArray(
				mock.RedisString("__vector_score"), mock.RedisString("0.5"),
				mock.RedisString("$"), mock.RedisString(`{"id":"b"}`),
			),
		)))

	s := NewStoreForTest(c, testPrefix)
	res, err := s.SearchKNN(context.Background(), &db.KNNQuery{
		Collection: "mods", Vector: []float32{0.1, 0.2}, K: 5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 2 || len(res.Entries) != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Entries[0].ID != "a" || res.Entries[0].Score != 0.25 {
		t.Errorf("entry[0] = %+v", res.Entries[0])
	}
	if string(res.Entries[1].Document) != `{"id":"b"}` || res.Entries[1].Score != 0.5 {
		t.Errorf("entry[1] = %+v", res.Entries[1])
	}
}

func TestSearchKNN_Empty(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "FT.SEARCH" })).
		Return(mock.Result(mock.RedisArray(mock.RedisInt64(0))))

	s := NewStoreForTest(c, testPrefix)
	res, err := s.SearchKNN(context.Background(), &db.KNNQuery{Collection: "mods", Vector: []float32{1}, K: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Entries) != 0 {
		t.Errorf("expected no entries, got %d", len(res.Entries))
	}
}

func TestSearchKNN_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "FT.SEARCH" })).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c, testPrefix)
	_, err := s.SearchKNN(context.Background(), &db.KNNQuery{Collection: "mods", Vector: []float32{1}, K: 3})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected wrapped deadline error, got %v", err)
	}
}

func TestSearchKNN_Validation(t *testing.T) {
	s := NewStoreForTest(nil, testPrefix)
	ctx := context.Background()
	cases := []*db.KNNQuery{
		{Vector: []float32{1}, K: 1},
		{Collection: "mods", K: 1},
		{Collection: "mods", Vector: []float32{1}},
	}
	for i, q := range cases {
		if _, err := s.SearchKNN(ctx, q); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

func TestSearchText_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH" &&
				cmd[2] == "@name|summary|description:(*sodium*|*fps*)" &&
				strings.Join(cmd[6:9], " ") == "LIMIT 0 30"
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(1),
			mock.RedisString("modcurator:mods:AANobbMI"),
			mock.RedisArray(mock.RedisString("$"), mock.RedisString(`[{"slug":"sodium"}]`)),
		)))

	s := NewStoreForTest(c, testPrefix)
	res, err := s.SearchText(context.Background(), &db.TextQuery{
		Collection: "mods",
		Terms:      []string{"Sodium", "fps", " "},
		Fields:     []string{"name", "summary", "description"},
		Limit:      30,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Entries) != 1 || res.Entries[0].ID != "AANobbMI" {
		t.Fatalf("unexpected entries %+v", res.Entries)
	}
}

func TestSearchText_Validation(t *testing.T) {
	s := NewStoreForTest(nil, testPrefix)
	ctx := context.Background()
	cases := []*db.TextQuery{
		{Terms: []string{"a"}, Fields: []string{"name"}, Limit: 1},
		{Collection: "mods", Terms: []string{"a"}, Fields: []string{"name"}},
		{Collection: "mods", Terms: []string{"a"}, Limit: 1},
		{Collection: "mods", Terms: []string{"a"}, Fields: []string{"na me"}, Limit: 1},
		{Collection: "mods", Terms: []string{"  "}, Fields: []string{"name"}, Limit: 1},
	}
	for i, q := range cases {
		if _, err := s.SearchText(ctx, q); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

func TestBuildTextQuery_Escapes(t *testing.T) {
	got, err := buildTextQuery([]string{"name"}, []string{"create-addon"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `@name:(*create\-addon*)` {
		t.Errorf("query = %q", got)
	}
}
