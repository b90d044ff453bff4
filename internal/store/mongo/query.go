package mongo

import (
	"context"
	"errors"

	"github.com/qscale/logstore/internal/catalog"
	"github.com/qscale/logstore/internal/store"
	"github.com/qscale/logstore/pkg/record"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type querySurface struct {
	db  *mongo.Database
	cat *catalog.Catalog
}

// NewReader returns the read-only query surface. Every method maps onto
// one of the catalog's declared indexes.
func NewReader(p *Provider, cat *catalog.Catalog) store.Reader {
	return &querySurface{db: p.Database(), cat: cat}
}

func (q *querySurface) collection(kind record.Kind) (*mongo.Collection, error) {
	spec, err := q.cat.Spec(kind)
	if err != nil {
		return nil, err
	}
	return q.db.Collection(spec.Collection), nil
}

// timeFilter adds the range bounds to filter. Served by the compound
// indexes whose trailing key is the time field.
func timeFilter(filter bson.M, tr store.TimeRange) {
	bounds := bson.M{}
	if !tr.From.IsZero() {
		bounds["$gte"] = tr.From
	}
	if !tr.To.IsZero() {
		bounds["$lte"] = tr.To
	}
	if len(bounds) > 0 {
		filter["timestamp"] = bounds
	}
}

func newestFirst(limit int64) *options.FindOptions {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return opts
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter bson.M, opts *options.FindOptions, op string) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, &record.StorageError{Op: op, Err: err}
	}
	defer cursor.Close(ctx)

	var out []T
	if err := cursor.All(ctx, &out); err != nil {
		return nil, &record.StorageError{Op: op, Err: err}
	}
	return out, nil
}

func (q *querySurface) ActivityByUser(ctx context.Context, userID, activityType string, tr store.TimeRange, limit int64) ([]record.ActivityRecord, error) {
	coll, err := q.collection(record.KindActivity)
	if err != nil {
		return nil, err
	}
	filter := bson.M{"user_id": userID}
	if activityType != "" {
		filter["type"] = activityType
	}
	timeFilter(filter, tr)
	return findAll[record.ActivityRecord](ctx, coll, filter, newestFirst(limit), "query activity by user")
}

func (q *querySurface) ActivityByAddress(ctx context.Context, ipAddress string, limit int64) ([]record.ActivityRecord, error) {
	coll, err := q.collection(record.KindActivity)
	if err != nil {
		return nil, err
	}
	filter := bson.M{"ip_address": ipAddress}
	return findAll[record.ActivityRecord](ctx, coll, filter, newestFirst(limit), "query activity by address")
}

func (q *querySurface) OperatorTrail(ctx context.Context, operator string, tr store.TimeRange, limit int64) ([]record.OperationRecord, error) {
	coll, err := q.collection(record.KindOperation)
	if err != nil {
		return nil, err
	}
	filter := bson.M{"operator": operator}
	timeFilter(filter, tr)
	return findAll[record.OperationRecord](ctx, coll, filter, newestFirst(limit), "query operator trail")
}

func (q *querySurface) ResourceAudit(ctx context.Context, resourceType, action string, tr store.TimeRange, limit int64) ([]record.OperationRecord, error) {
	coll, err := q.collection(record.KindOperation)
	if err != nil {
		return nil, err
	}
	filter := bson.M{"resource_type": resourceType}
	if action != "" {
		filter["action"] = action
	}
	timeFilter(filter, tr)
	return findAll[record.OperationRecord](ctx, coll, filter, newestFirst(limit), "query resource audit")
}

func (q *querySurface) SubmissionsByQuestionnaire(ctx context.Context, questionnaireID, submissionType string, tr store.TimeRange, limit int64) ([]record.SubmissionRecord, error) {
	coll, err := q.collection(record.KindSubmission)
	if err != nil {
		return nil, err
	}
	filter := bson.M{"questionnaire_id": questionnaireID}
	if submissionType != "" {
		filter["type"] = submissionType
	}
	timeFilter(filter, tr)
	return findAll[record.SubmissionRecord](ctx, coll, filter, newestFirst(limit), "query submissions by questionnaire")
}

func (q *querySurface) SubmissionsByUser(ctx context.Context, userID string, tr store.TimeRange, limit int64) ([]record.SubmissionRecord, error) {
	coll, err := q.collection(record.KindSubmission)
	if err != nil {
		return nil, err
	}
	filter := bson.M{"user_id": userID}
	timeFilter(filter, tr)
	return findAll[record.SubmissionRecord](ctx, coll, filter, newestFirst(limit), "query submissions by user")
}

func (q *querySurface) GetConfig(ctx context.Context, key string) (*record.ConfigEntry, error) {
	coll, err := q.collection(record.KindConfig)
	if err != nil {
		return nil, err
	}

	var entry record.ConfigEntry
	if err := coll.FindOne(ctx, bson.M{"key": key}).Decode(&entry); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, record.ErrNotFound
		}
		return nil, &record.StorageError{Op: "get config", Err: err}
	}
	return &entry, nil
}

// textSearch runs a $text query ranked by score. Best-effort: results
// depend on the text index's tokenization, no correctness guarantee.
func textSearch(limit int64) *options.FindOptions {
	opts := options.Find().
		SetProjection(bson.M{"score": bson.M{"$meta": "textScore"}}).
		SetSort(bson.M{"score": bson.M{"$meta": "textScore"}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return opts
}

func (q *querySurface) SearchActivity(ctx context.Context, query string, limit int64) ([]record.ActivityRecord, error) {
	coll, err := q.collection(record.KindActivity)
	if err != nil {
		return nil, err
	}
	filter := bson.M{"$text": bson.M{"$search": query}}
	return findAll[record.ActivityRecord](ctx, coll, filter, textSearch(limit), "search activity")
}

func (q *querySurface) SearchOperations(ctx context.Context, query string, limit int64) ([]record.OperationRecord, error) {
	coll, err := q.collection(record.KindOperation)
	if err != nil {
		return nil, err
	}
	filter := bson.M{"$text": bson.M{"$search": query}}
	return findAll[record.OperationRecord](ctx, coll, filter, textSearch(limit), "search operations")
}

func (q *querySurface) Count(ctx context.Context, kind record.Kind) (int64, error) {
	coll, err := q.collection(kind)
	if err != nil {
		return 0, err
	}
	n, err := coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, &record.StorageError{Op: "count", Err: err}
	}
	return n, nil
}
