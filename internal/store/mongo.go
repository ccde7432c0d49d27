package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/chalkdoc/chalkdoc"
)

type variableDocument struct {
	Symbol  string `bson:"variable"`
	Min     int64  `bson:"min"`
	Max     int64  `bson:"max"`
	ZeroOK  bool   `bson:"zero_ok"`
	NumType string `bson:"num_type,omitempty"`
}

// problemDocument keeps a problem's values in one map: each input symbol
// holds its value and the unknown holds the list of solutions.
type problemDocument struct {
	Values  bson.M `bson:"values"`
	Problem string `bson:"problem"`
	Answer  string `bson:"answer"`
}

func (doc problemDocument) problem() (chalkdoc.ProblemInstance, error) {
	p := chalkdoc.ProblemInstance{Inputs: map[string]int64{}, Problem: doc.Problem, Answer: doc.Answer}
	for sym, v := range doc.Values {
		switch v := v.(type) {
		case int64:
			p.Inputs[sym] = v
		case int32:
			p.Inputs[sym] = int64(v)
		case primitive.A:
			if p.Unknown != "" {
				return chalkdoc.ProblemInstance{}, fmt.Errorf("problem %q has two unknowns: %s and %s", doc.Problem, p.Unknown, sym)
			}
			p.Unknown = sym
			for _, s := range v {
				n, ok := s.(int64)
				if !ok {
					return chalkdoc.ProblemInstance{}, fmt.Errorf("problem %q: solution %v of %s is not an integer", doc.Problem, s, sym)
				}
				p.Solutions = append(p.Solutions, n)
			}
		default:
			return chalkdoc.ProblemInstance{}, fmt.Errorf("problem %q: value of %s has type %T", doc.Problem, sym, v)
		}
	}
	if p.Unknown == "" {
		return chalkdoc.ProblemInstance{}, fmt.Errorf("problem %q has no unknown", doc.Problem)
	}
	return p, nil
}

// topicDocument is the stored shape of a topic. The id is the document's
// ObjectID and is not duplicated in the body.
type topicDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Topic        string             `bson:"topic"`
	Instructions string             `bson:"instructions"`
	Categories   []string           `bson:"categories"`
	Equation     string             `bson:"equation"`
	PositiveOnly bool               `bson:"positive_only"`
	Unknown      string             `bson:"unknown"`
	Variables    []variableDocument `bson:"variables"`
	Problems     []problemDocument  `bson:"problems"`
	Count        int                `bson:"count"`
	CreatedAt    time.Time          `bson:"created_at"`
}

func toDocument(t *chalkdoc.Topic) topicDocument {
	doc := topicDocument{
		Topic:        t.Topic,
		Instructions: t.Instructions,
		Categories:   t.Categories,
		Equation:     t.Equation,
		PositiveOnly: t.PositiveOnly,
		Unknown:      t.Unknown,
		Count:        t.Count,
		CreatedAt:    t.CreatedAt,
	}
	for _, v := range t.Variables {
		doc.Variables = append(doc.Variables, variableDocument{
			Symbol: v.Symbol, Min: v.Min, Max: v.Max, ZeroOK: v.ZeroOK, NumType: string(v.NumType),
		})
	}
	for _, p := range t.Problems {
		doc.Problems = append(doc.Problems, problemDocument{
			Values: bson.M(p.Values()), Problem: p.Problem, Answer: p.Answer,
		})
	}
	return doc
}

func (doc topicDocument) topic() (*chalkdoc.Topic, error) {
	t := &chalkdoc.Topic{
		ID:           doc.ID.Hex(),
		Topic:        doc.Topic,
		Instructions: doc.Instructions,
		Categories:   doc.Categories,
		Equation:     doc.Equation,
		PositiveOnly: doc.PositiveOnly,
		Unknown:      doc.Unknown,
		Count:        doc.Count,
		CreatedAt:    doc.CreatedAt.UTC(),
	}
	for _, v := range doc.Variables {
		t.Variables = append(t.Variables, chalkdoc.VariableSpec{
			Symbol: v.Symbol, Min: v.Min, Max: v.Max, ZeroOK: v.ZeroOK, NumType: chalkdoc.NumType(v.NumType),
		})
	}
	for _, pd := range doc.Problems {
		p, err := pd.problem()
		if err != nil {
			return nil, err
		}
		t.Problems = append(t.Problems, p)
	}
	return t, nil
}

// MongoStore writes one document per topic.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to uri and uses database.collection.
func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return &MongoStore{client: client, coll: client.Database(database).Collection(collection)}, nil
}

func (m *MongoStore) Save(ctx context.Context, t *chalkdoc.Topic) (string, error) {
	res, err := m.coll.InsertOne(ctx, toDocument(t))
	if err != nil {
		return "", fmt.Errorf("insert topic: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("insert topic: unexpected id type %T", res.InsertedID)
	}
	t.ID = oid.Hex()
	return t.ID, nil
}

func (m *MongoStore) Get(ctx context.Context, id string) (*chalkdoc.Topic, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var doc topicDocument
	err = m.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find topic %s: %w", id, err)
	}
	t, err := doc.topic()
	if err != nil {
		return nil, fmt.Errorf("decode topic %s: %w", id, err)
	}
	return t, nil
}

func (m *MongoStore) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
