package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sesgocero/crawler/internal/types"
)

// MongoStore keeps the canonical article collection in MongoDB. The
// unique index on url is the identity constraint: concurrent writers
// for the same article serialize on it instead of on any in-process
// lock, so multiple crawler instances can run against one collection.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     *slog.Logger
}

// NewMongoStore connects to MongoDB and ensures the identity index.
func NewMongoStore(ctx context.Context, uri, database, collection string, logger *slog.Logger) (*MongoStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}

	s := &MongoStore{
		client:     client,
		collection: client.Database(database).Collection(collection),
		logger:     logger.With("component", "mongo_store"),
	}

	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) Name() string { return "mongodb" }

// EnsureIndexes creates the unique index backing the identity key.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "url", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return &types.StoreError{Op: "ensure_indexes", Err: err}
	}
	return nil
}

// Upsert writes the article keyed by url in a single atomic update.
// Content fields go through $set (identical payloads modify nothing),
// downstream flags only through $setOnInsert so a re-crawl never
// resets cleaned or political_orientation. A duplicate-key error on
// the insert path means another writer won the race; the write is
// retried as a plain update.
func (s *MongoStore) Upsert(ctx context.Context, a *types.Article) (Outcome, error) {
	filter := bson.M{"url": a.URL}
	update := upsertUpdate(a)

	res, err := s.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil && mongo.IsDuplicateKeyError(err) {
		s.logger.Debug("lost insert race, converting to update", "url", a.URL)
		res, err = s.collection.UpdateOne(ctx, filter, update)
	}
	if err != nil {
		return OutcomeUnchanged, &types.StoreError{Op: "upsert", URL: a.URL, Err: err}
	}

	outcome := classifyUpsert(res.MatchedCount, res.ModifiedCount, res.UpsertedCount)
	s.logger.Debug("upsert", "url", a.URL, "outcome", outcome.String())
	return outcome, nil
}

// ReconcileDuplicates collapses every group of records sharing a url
// down to one survivor. It exists for collections that predate the
// unique index; with the index in place a second run finds nothing.
func (s *MongoStore) ReconcileDuplicates(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport

	groupStage := bson.D{{Key: "$group", Value: bson.D{
		{Key: "_id", Value: "$url"},
		{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
	}}}
	matchStage := bson.D{{Key: "$match", Value: bson.D{
		{Key: "count", Value: bson.D{{Key: "$gt", Value: 1}}},
	}}}

	cursor, err := s.collection.Aggregate(ctx, mongo.Pipeline{groupStage, matchStage})
	if err != nil {
		return report, &types.StoreError{Op: "reconcile", Err: err}
	}
	defer cursor.Close(ctx)

	var groups []struct {
		URL   string `bson:"_id"`
		Count int    `bson:"count"`
	}
	if err := cursor.All(ctx, &groups); err != nil {
		return report, &types.StoreError{Op: "reconcile", Err: err}
	}

	for _, group := range groups {
		removed, err := s.reconcileGroup(ctx, group.URL)
		if err != nil {
			// Per-group failure: log and keep going so one bad
			// group doesn't block the rest of the cleanup.
			s.logger.Error("reconcile group failed", "url", group.URL, "error", err)
			continue
		}
		report.Groups++
		report.Removed += removed
	}

	s.logger.Info("reconciliation complete", "groups", report.Groups, "removed", report.Removed)
	return report, nil
}

// reconcileGroup keeps the survivor for one identity value and
// deletes the rest.
func (s *MongoStore) reconcileGroup(ctx context.Context, url string) (int, error) {
	// _id order is insertion order, which makes the tie-break
	// deterministic: equal or missing dates retain the earliest
	// stored member.
	findOpts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetProjection(bson.D{{Key: "_id", Value: 1}, {Key: "date", Value: 1}})

	cursor, err := s.collection.Find(ctx, bson.M{"url": url}, findOpts)
	if err != nil {
		return 0, err
	}

	var docs []duplicateDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return 0, err
	}
	if len(docs) < 2 {
		return 0, nil
	}

	keep := docs[pickSurvivor(docs)].ID
	res, err := s.collection.DeleteMany(ctx, bson.M{
		"url": url,
		"_id": bson.M{"$ne": keep},
	})
	if err != nil {
		return 0, err
	}
	return int(res.DeletedCount), nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	disconnectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.client.Disconnect(disconnectCtx)
}

// duplicateDoc is the projection used during reconciliation.
type duplicateDoc struct {
	ID   primitive.ObjectID `bson:"_id"`
	Date *time.Time         `bson:"date"`
}

// upsertUpdate builds the update document for an article. Identity
// stays in the filter; downstream flags ride $setOnInsert only.
func upsertUpdate(a *types.Article) bson.M {
	set := bson.M{
		"title":    a.Title,
		"subtitle": a.Subtitle,
		"content":  a.Content,
		"source":   a.Source,
		"date":     a.Date,
	}
	// The url itself comes from the equality filter on insert.
	return bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"cleaned":               false,
			"political_orientation": a.PoliticalOrientation,
		},
	}
}

// classifyUpsert maps the server's result counts onto an Outcome.
func classifyUpsert(matched, modified, upserted int64) Outcome {
	switch {
	case upserted > 0:
		return OutcomeInserted
	case modified > 0:
		return OutcomeUpdated
	case matched > 0:
		return OutcomeUnchanged
	default:
		return OutcomeUnchanged
	}
}

// pickSurvivor returns the index of the record to retain: the most
// recent date wins, a missing date sorts as the minimum, and ties
// keep the earliest-stored member (input comes in _id order).
func pickSurvivor(docs []duplicateDoc) int {
	best := 0
	for i := 1; i < len(docs); i++ {
		if dateOf(docs[i]).After(dateOf(docs[best])) {
			best = i
		}
	}
	return best
}

func dateOf(d duplicateDoc) time.Time {
	if d.Date == nil {
		return time.Time{}
	}
	return *d.Date
}
