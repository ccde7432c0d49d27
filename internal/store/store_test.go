package store

import (
	"context"
	"errors"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/chalkdoc/chalkdoc"
)

func sampleTopic(t *testing.T) *chalkdoc.Topic {
	t.Helper()
	topic, err := chalkdoc.BuildTopic(context.Background(), chalkdoc.New(chalkdoc.Options{}), chalkdoc.TopicInput{
		Topic:        "Addition",
		Instructions: "Solve for c.",
		Categories:   []string{"arithmetic"},
		Template: chalkdoc.Template{
			Equation: "a+b=c",
			Variables: []chalkdoc.VariableSpec{
				{Symbol: "a", Min: -1, Max: 2},
				{Symbol: "b", Min: 1, Max: 2},
				{Symbol: "c", Min: 1, Max: 100},
			},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	// Stores that round-trip through BSON keep millisecond precision.
	topic.CreatedAt = topic.CreatedAt.Truncate(time.Millisecond)
	return topic
}

func newMiniredis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(context.Background(), mr.Addr(), "", 0)
	if err != nil {
		t.Fatal(err)
	}
	return client
}

// exerciseStore checks the TopicStore contract shared by every backend.
func exerciseStore(t *testing.T, s TopicStore) {
	ctx := context.Background()
	topic := sampleTopic(t)

	id, err := s.Save(ctx, topic)
	if err != nil {
		t.Fatal(err)
	}
	if id == "" || topic.ID != id {
		t.Fatalf("Save must assign the id to the topic: id=%q topic.ID=%q", id, topic.ID)
	}

	got, err := s.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, topic) {
		t.Errorf("round trip:\nwant %+v\ngot  %+v", topic, got)
	}

	other := sampleTopic(t)
	id2, err := s.Save(ctx, other)
	if err != nil {
		t.Fatal(err)
	}
	if id2 == id {
		t.Errorf("ids must be unique, got %q twice", id)
	}

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("want ErrNotFound, got %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	id, _ := s.Save(ctx, sampleTopic(t))
	got, _ := s.Get(ctx, id)
	got.Problems[0].Answer = "changed"
	again, _ := s.Get(ctx, id)
	if again.Problems[0].Answer == "changed" {
		t.Error("stored topic was mutated through a returned copy")
	}
}

func TestRedisStore(t *testing.T) {
	s := NewRedisStore(newMiniredis(t))
	exerciseStore(t, s)
	if err := s.Close(context.Background()); err != nil {
		t.Error(err)
	}
}

func TestRedisStore_SequentialIDs(t *testing.T) {
	s := NewRedisStore(newMiniredis(t))
	ctx := context.Background()
	first, _ := s.Save(ctx, sampleTopic(t))
	second, _ := s.Save(ctx, sampleTopic(t))
	if first != "1" || second != "2" {
		t.Errorf("want ids 1 and 2, got %s and %s", first, second)
	}
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	if _, err := NewRedisClient(context.Background(), addr, "", 0); err == nil {
		t.Error("want error for a closed server")
	}
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("CHALKDOC_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("CHALKDOC_TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	s, err := NewMongoStore(ctx, uri, "chalkdoc_test", "topics_"+time.Now().Format("150405.000000"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close(ctx)
	exerciseStore(t, s)
}

func TestMongoDocument_RoundTrip(t *testing.T) {
	topic := sampleTopic(t)
	topic.ID = ""
	raw, err := bson.Marshal(toDocument(topic))
	if err != nil {
		t.Fatal(err)
	}
	var doc topicDocument
	if err := bson.Unmarshal(raw, &doc); err != nil {
		t.Fatal(err)
	}
	back, err := doc.topic()
	if err != nil {
		t.Fatal(err)
	}
	back.ID = ""
	if !reflect.DeepEqual(back, topic) {
		t.Errorf("document conversion lost data:\nwant %+v\ngot  %+v", topic, back)
	}
}

func TestMongoDocument_Shape(t *testing.T) {
	raw, err := bson.Marshal(toDocument(sampleTopic(t)))
	if err != nil {
		t.Fatal(err)
	}
	var shape struct {
		Variables []bson.M `bson:"variables"`
		Problems  []bson.M `bson:"problems"`
	}
	if err := bson.Unmarshal(raw, &shape); err != nil {
		t.Fatal(err)
	}
	if shape.Variables[0]["variable"] != "a" {
		t.Errorf("variables are keyed by variable, got %v", shape.Variables[0])
	}
	values, ok := shape.Problems[0]["values"].(bson.M)
	if !ok {
		t.Fatalf("want a values map, got %v", shape.Problems[0])
	}
	if values["a"] != int64(-1) || values["b"] != int64(2) {
		t.Errorf("unexpected input values %v", values)
	}
	if c, ok := values["c"].(bson.A); !ok || len(c) != 1 || c[0] != int64(1) {
		t.Errorf("want the unknown to hold [1], got %v", values["c"])
	}
}

func TestMongoDocument_BadValues(t *testing.T) {
	cases := map[string]bson.M{
		"no unknown":  {"a": int64(1)},
		"two unknown": {"a": bson.A{int64(1)}, "b": bson.A{int64(2)}},
		"fraction":    {"a": bson.A{0.5}},
		"string":      {"a": "1", "b": bson.A{int64(2)}},
	}
	for name, values := range cases {
		if _, err := (problemDocument{Values: values, Problem: "p"}).problem(); err == nil {
			t.Errorf("%s: want error", name)
		}
	}
}

// ============================================================
// Cache tests
// ============================================================

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache()
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("empty cache hit")
	}
	c.Set(ctx, "k", []byte("v"), time.Minute)
	c.Set(ctx, "forever", []byte("f"), 0)
	if v, ok := c.Get(ctx, "k"); !ok || string(v) != "v" {
		t.Errorf("want v, got %q %v", v, ok)
	}
	now = now.Add(time.Minute)
	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("entry should have expired")
	}
	if _, ok := c.Get(ctx, "forever"); !ok {
		t.Error("zero ttl must not expire")
	}
}

func TestRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(context.Background(), mr.Addr(), "", 0)
	if err != nil {
		t.Fatal(err)
	}
	c := NewRedisCache(client)
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if v, ok := c.Get(ctx, "k"); !ok || string(v) != "v" {
		t.Errorf("want v, got %q %v", v, ok)
	}
	if !mr.Exists(cacheKeyPrefix + "k") {
		t.Error("cache keys must be namespaced")
	}
	mr.FastForward(time.Minute)
	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("entry should have expired")
	}
}
