package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Rana718/docstorm/internal/database/common"
	"github.com/Rana718/docstorm/internal/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type Adapter struct {
	client        *mongo.Client
	replicaClient *mongo.Client
	database      *mongo.Database
	dbName        string

	collection *mongo.Collection
	// secondary serves aggregation reads
	secondary *mongo.Collection
	fields    []string
}

func New() *Adapter {
	return &Adapter{}
}

func (a *Adapter) Connect(ctx context.Context, opts common.Options) error {
	if opts.Collection == "" {
		return fmt.Errorf("collection name cannot be empty")
	}

	clientOpts := options.Client().ApplyURI(opts.URL)
	if opts.PoolSize > 0 {
		clientOpts.SetMaxPoolSize(uint64(opts.PoolSize))
	}
	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	a.client = client

	if err := client.Ping(ctx, nil); err != nil {
		a.Close()
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	if opts.Spec != nil {
		a.fields = opts.Spec.Names()
	}

	a.dbName = opts.Database
	if a.dbName == "" {
		a.dbName = extractDBName(opts.URL, clientOpts)
	}
	a.database = client.Database(a.dbName)
	a.collection = a.database.Collection(opts.Collection)

	secondaryOpts := options.Collection().SetReadPreference(readpref.SecondaryPreferred())
	if opts.ReplicaURL != "" {
		replica, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.ReplicaURL))
		if err != nil {
			a.Close()
			return fmt.Errorf("failed to connect to MongoDB replica: %w", err)
		}
		a.replicaClient = replica
		if err := replica.Ping(ctx, readpref.Nearest()); err != nil {
			a.Close()
			return fmt.Errorf("failed to ping MongoDB replica: %w", err)
		}
		a.secondary = replica.Database(a.dbName).Collection(opts.Collection, secondaryOpts)
	} else {
		a.secondary = a.database.Collection(opts.Collection, secondaryOpts)
	}

	if opts.IndexField != "" {
		model := mongo.IndexModel{
			Keys:    bson.D{{Key: opts.IndexField, Value: 1}},
			Options: options.Index().SetName(common.IndexName(opts.Collection, opts.IndexField)),
		}
		if _, err := a.collection.Indexes().CreateOne(ctx, model); err != nil {
			a.Close()
			return fmt.Errorf("failed to create index on %s: %w", opts.IndexField, err)
		}
	}

	return nil
}

// DatabaseName is the database the collection lives in.
func (a *Adapter) DatabaseName() string {
	return a.dbName
}

// extractDBName reads the database from the URL path, then the auth source,
// and falls back to "test".
func extractDBName(url string, opts *options.ClientOptions) string {
	if len(url) > 0 {
		parts := strings.Split(url, "/")
		if len(parts) > 3 {
			dbPart := parts[len(parts)-1]
			if idx := strings.Index(dbPart, "?"); idx >= 0 {
				dbPart = dbPart[:idx]
			}
			if dbPart != "" && dbPart != "admin" {
				return dbPart
			}
		}
	}

	if opts != nil && opts.Auth != nil && opts.Auth.AuthSource != "" && opts.Auth.AuthSource != "admin" {
		return opts.Auth.AuthSource
	}

	return "test"
}

func (a *Adapter) Close() error {
	var errs []error
	if a.replicaClient != nil {
		errs = append(errs, a.replicaClient.Disconnect(context.Background()))
	}
	if a.client != nil {
		errs = append(errs, a.client.Disconnect(context.Background()))
	}
	return errors.Join(errs...)
}

func (a *Adapter) Ping(ctx context.Context) error {
	if err := a.client.Ping(ctx, nil); err != nil {
		return err
	}
	if a.replicaClient != nil {
		return a.replicaClient.Ping(ctx, readpref.Nearest())
	}
	return nil
}

func (a *Adapter) InsertOne(ctx context.Context, doc types.Document) error {
	if _, err := a.collection.InsertOne(ctx, toBSON(doc, a.fields)); err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

func (a *Adapter) InsertMany(ctx context.Context, docs []types.Document) error {
	if len(docs) == 0 {
		return nil
	}
	batch := make([]interface{}, len(docs))
	for i, doc := range docs {
		batch[i] = toBSON(doc, a.fields)
	}
	if _, err := a.collection.InsertMany(ctx, batch); err != nil {
		return fmt.Errorf("failed to insert %d documents: %w", len(docs), err)
	}
	return nil
}

func (a *Adapter) FindOne(ctx context.Context, filter types.Filter) (types.Document, error) {
	var result bson.M
	err := a.collection.FindOne(ctx, bson.M(filter)).Decode(&result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find document: %w", err)
	}
	return fromBSON(result), nil
}

func (a *Adapter) Aggregate(ctx context.Context, g types.GroupCount, target types.Target) ([]types.Document, error) {
	coll := a.collection
	if target == types.Secondary {
		coll = a.secondary
	}

	cursor, err := coll.Aggregate(ctx, Pipeline(g))
	if err != nil {
		return nil, fmt.Errorf("failed to run aggregation: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []bson.M
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to read aggregation results: %w", err)
	}

	results := make([]types.Document, len(rows))
	for i, row := range rows {
		results[i] = fromBSON(row)
	}
	return results, nil
}
