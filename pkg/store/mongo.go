package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/flowcanvas/pkg/graph"
)

// MongoOptions configures [NewMongo].
type MongoOptions struct {
	URI        string
	Database   string
	Collection string
}

// Mongo stores graphs in a MongoDB collection. The definition is kept as
// its JSON encoding next to a few indexed summary fields, so config maps
// survive the round trip unchanged.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    func() time.Time
}

type mongoDoc struct {
	ID         string    `bson:"_id"`
	Start      string    `bson:"start"`
	NodeCount  int       `bson:"node_count"`
	EdgeCount  int       `bson:"edge_count"`
	Definition string    `bson:"definition"`
	CreatedAt  time.Time `bson:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

func (d mongoDoc) summary() Summary {
	return Summary{
		ID:        d.ID,
		Start:     d.Start,
		Nodes:     d.NodeCount,
		Edges:     d.EdgeCount,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// NewMongo connects to MongoDB and pings the server.
func NewMongo(ctx context.Context, opts MongoOptions) (*Mongo, error) {
	if opts.Database == "" {
		opts.Database = "flowcanvas"
	}
	if opts.Collection == "" {
		opts.Collection = "graphs"
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	coll := client.Database(opts.Database).Collection(opts.Collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "updated_at", Value: -1}}})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo index: %w", err)
	}
	return &Mongo{client: client, coll: coll, now: time.Now}, nil
}

func (m *Mongo) doc(def graph.Definition, created, updated time.Time) (mongoDoc, error) {
	data, err := graph.Marshal(def)
	if err != nil {
		return mongoDoc{}, err
	}
	return mongoDoc{
		ID:         def.ID,
		Start:      def.Start,
		NodeCount:  len(def.Nodes),
		EdgeCount:  len(def.Edges),
		Definition: string(data),
		CreatedAt:  created,
		UpdatedAt:  updated,
	}, nil
}

// Create implements Store.
func (m *Mongo) Create(ctx context.Context, def graph.Definition) (graph.Definition, error) {
	def = assignID(def)
	now := m.now().UTC()
	doc, err := m.doc(def, now, now)
	if err != nil {
		return graph.Definition{}, err
	}
	if _, err := m.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return graph.Definition{}, fmt.Errorf("%w: %s", ErrExists, def.ID)
		}
		return graph.Definition{}, fmt.Errorf("mongo insert: %w", err)
	}
	return def, nil
}

// Get implements Store.
func (m *Mongo) Get(ctx context.Context, id string) (graph.Definition, error) {
	var doc mongoDoc
	err := m.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return graph.Definition{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return graph.Definition{}, fmt.Errorf("mongo find: %w", err)
	}
	return graph.Unmarshal([]byte(doc.Definition))
}

// Update implements Store.
func (m *Mongo) Update(ctx context.Context, def graph.Definition) error {
	doc, err := m.doc(def, time.Time{}, m.now().UTC())
	if err != nil {
		return err
	}
	res, err := m.coll.UpdateOne(ctx, bson.M{"_id": def.ID}, bson.M{"$set": bson.M{
		"start":      doc.Start,
		"node_count": doc.NodeCount,
		"edge_count": doc.EdgeCount,
		"definition": doc.Definition,
		"updated_at": doc.UpdatedAt,
	}})
	if err != nil {
		return fmt.Errorf("mongo update: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, def.ID)
	}
	return nil
}

// Delete implements Store.
func (m *Mongo) Delete(ctx context.Context, id string) error {
	res, err := m.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("mongo delete: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// List implements Store.
func (m *Mongo) List(ctx context.Context) ([]Summary, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"definition": 0})
	cur, err := m.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo list: %w", err)
	}
	defer cur.Close(ctx)

	var out []Summary
	for cur.Next(ctx) {
		var doc mongoDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("mongo decode: %w", err)
		}
		out = append(out, doc.summary())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("mongo cursor: %w", err)
	}
	return out, nil
}

// Close implements Store.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

var _ Store = (*Mongo)(nil)
