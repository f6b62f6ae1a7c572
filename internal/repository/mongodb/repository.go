// Package mongodb is the persistent store adapter. Each exported method maps
// onto one remote collection; failures surface as RemoteStoreError so the
// engines can decide between aborting and degrading to the local fallback.
package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmledger/internal/domain/models"
	"github.com/mamadbah2/farmledger/internal/observability"
)

// Remote collection names. These are the persisted field sets; the "chickens"
// name for orders is legacy and kept bit-exact.
const (
	CollOrders                = "chickens"
	CollStock                 = "stock"
	CollTransactions          = "transactions"
	CollBalance               = "balance"
	CollLiveBatches           = "live_chickens"
	CollDressedBatches        = "dressed_chickens"
	CollFeedInventory         = "feed_inventory"
	CollFeedConsumption       = "feed_consumption"
	CollFeedAssignments       = "feed_batch_assignments"
	CollInventoryTransactions = "chicken_inventory_transactions"
	CollBatchRelationships    = "batch_relationships"
	CollAuditLogs             = "audit_logs"
)

// Collections lists every remote collection, in fallback-bucket order.
var Collections = []string{
	CollOrders, CollStock, CollTransactions, CollBalance,
	CollLiveBatches, CollDressedBatches, CollFeedInventory,
	CollFeedConsumption, CollFeedAssignments, CollInventoryTransactions,
	CollBatchRelationships, CollAuditLogs,
}

// Repository is the MongoDB-backed store adapter.
type Repository struct {
	client *mongo.Client
	dbName string
	logger *zap.Logger
}

// New connects to MongoDB and verifies the connection with a ping.
func New(ctx context.Context, uri, dbName string, logger *zap.Logger) (*Repository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &Repository{client: client, dbName: dbName, logger: logger}, nil
}

// Close disconnects the client.
func (r *Repository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *Repository) collection(name string) *mongo.Collection {
	return r.client.Database(r.dbName).Collection(name)
}

func storeErr(coll, op string, err error) error {
	observability.RemoteFailures.WithLabelValues(coll, op).Inc()
	return &models.RemoteStoreError{Collection: coll, Op: op, Err: err}
}

// insertOne writes one document into coll.
func insertOne[T any](ctx context.Context, r *Repository, coll string, doc T) error {
	if _, err := r.collection(coll).InsertOne(ctx, doc); err != nil {
		return storeErr(coll, "insert", err)
	}
	return nil
}

// findByID loads one document by _id, mapping missing docs to NotFound.
func findByID[T any](ctx context.Context, r *Repository, coll string, id any) (T, error) {
	var out T
	err := r.collection(coll).FindOne(ctx, bson.M{"_id": id}).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return out, &models.NotFoundError{Collection: coll, ID: fmt.Sprint(id)}
	}
	if err != nil {
		return out, storeErr(coll, "find", err)
	}
	return out, nil
}

// replaceByID fully replaces one document, erroring when it does not exist.
func replaceByID[T any](ctx context.Context, r *Repository, coll string, id any, doc T) error {
	res, err := r.collection(coll).ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return storeErr(coll, "replace", err)
	}
	if res.MatchedCount == 0 {
		return &models.NotFoundError{Collection: coll, ID: fmt.Sprint(id)}
	}
	return nil
}

// upsertByID replaces or creates one document.
func upsertByID[T any](ctx context.Context, r *Repository, coll string, id any, doc T) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection(coll).ReplaceOne(ctx, bson.M{"_id": id}, doc, opts); err != nil {
		return storeErr(coll, "upsert", err)
	}
	return nil
}

// deleteByID removes one document, erroring when it does not exist.
func deleteByID(ctx context.Context, r *Repository, coll string, id any) error {
	res, err := r.collection(coll).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return storeErr(coll, "delete", err)
	}
	if res.DeletedCount == 0 {
		return &models.NotFoundError{Collection: coll, ID: fmt.Sprint(id)}
	}
	return nil
}

// list runs a filtered, sorted, paginated find with an optional column
// projection for the requested view.
func list[T any](ctx context.Context, r *Repository, coll string, opts models.ListOptions) ([]T, error) {
	opts.Normalize()

	filter := bson.M{}
	for k, v := range opts.Filter {
		filter[k] = v
	}

	findOpts := options.Find().
		SetSkip(opts.Offset).
		SetLimit(opts.Limit)

	if opts.SortBy != "" {
		dir := 1
		if opts.SortDesc {
			dir = -1
		}
		findOpts.SetSort(bson.D{{Key: opts.SortBy, Value: dir}})
	}
	if proj := projectionFor(coll, opts.View); proj != nil {
		findOpts.SetProjection(proj)
	}

	cur, err := r.collection(coll).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, storeErr(coll, "list", err)
	}
	defer func() { _ = cur.Close(ctx) }()

	var out []T
	if err := cur.All(ctx, &out); err != nil {
		return nil, storeErr(coll, "decode", err)
	}
	return out, nil
}
