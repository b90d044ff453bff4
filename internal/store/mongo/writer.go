package mongo

import (
	"context"
	"time"

	"github.com/qscale/logstore/internal/catalog"
	"github.com/qscale/logstore/internal/store"
	"github.com/qscale/logstore/internal/validator"
	"github.com/qscale/logstore/pkg/record"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const dedupKeyField = "dedup_key"

type logWriter struct {
	db  *mongo.Database
	cat *catalog.Catalog
	now func() time.Time
}

// NewWriter returns the append-only write surface over the provider's
// database, validating every record against the catalog before insert.
func NewWriter(p *Provider, cat *catalog.Catalog) store.Writer {
	return &logWriter{
		db:  p.Database(),
		cat: cat,
		now: time.Now,
	}
}

func (w *logWriter) Append(ctx context.Context, kind record.Kind, doc record.Mapping, opts *store.AppendOptions) (string, error) {
	spec, err := w.cat.Spec(kind)
	if err != nil {
		return "", err
	}
	if kind == record.KindConfig {
		// Config entries are keyed upserts, not appends.
		return "", &record.ValidationError{
			Collection: spec.Collection,
			Reason:     "config entries are written via UpsertConfig",
		}
	}

	if err := validator.Validate(spec, doc); err != nil {
		return "", err
	}

	insert := bson.M(doc)
	if opts != nil && opts.DedupKey != "" {
		// Copy before decorating so the caller's mapping stays clean
		// for a retry.
		insert = make(bson.M, len(doc)+1)
		for k, v := range doc {
			insert[k] = v
		}
		insert[dedupKeyField] = opts.DedupKey
	}

	coll := w.db.Collection(spec.Collection)
	res, err := coll.InsertOne(ctx, insert)
	if err != nil {
		if opts != nil && opts.DedupKey != "" && mongo.IsDuplicateKeyError(err) {
			return w.findByDedupKey(ctx, coll, opts.DedupKey)
		}
		return "", &record.StorageError{Op: "insert " + spec.Collection, Err: err}
	}

	return hexID(res.InsertedID), nil
}

// findByDedupKey resolves a duplicate-key collision on the sparse dedup
// index: the record from an earlier attempt is already stored, so the
// retried append succeeds with the stored id.
func (w *logWriter) findByDedupKey(ctx context.Context, coll *mongo.Collection, key string) (string, error) {
	var stored struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	err := coll.FindOne(ctx, bson.M{dedupKeyField: key}).Decode(&stored)
	if err != nil {
		return "", &record.StorageError{Op: "resolve dedup key", Err: err}
	}
	return stored.ID.Hex(), nil
}

func (w *logWriter) UpsertConfig(ctx context.Context, key string, value interface{}, description, updatedBy string) error {
	spec, err := w.cat.Spec(record.KindConfig)
	if err != nil {
		return err
	}
	if key == "" {
		return &record.ValidationError{
			Collection: spec.Collection,
			Field:      "key",
			Reason:     "missing required field",
		}
	}
	if value == nil {
		return &record.ValidationError{
			Collection: spec.Collection,
			Field:      "value",
			Reason:     "missing required field",
		}
	}

	set := bson.M{
		"key":        key,
		"value":      value,
		"updated_at": w.now(),
	}
	if description != "" {
		set["description"] = description
	}
	if updatedBy != "" {
		set["updated_by"] = updatedBy
	}

	// Last write wins on concurrent upserts to the same key; the unique
	// index on key guarantees a single stored entry.
	_, err = w.db.Collection(spec.Collection).UpdateOne(ctx,
		bson.M{"key": key},
		bson.M{"$set": set},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Two concurrent first-writes raced on the unique index.
			// The entry now exists, so a plain retry applies this write.
			_, retryErr := w.db.Collection(spec.Collection).UpdateOne(ctx,
				bson.M{"key": key}, bson.M{"$set": set})
			if retryErr != nil {
				return &record.StorageError{Op: "upsert config", Err: retryErr}
			}
			return nil
		}
		return &record.StorageError{Op: "upsert config", Err: err}
	}
	return nil
}

func hexID(id interface{}) string {
	if oid, ok := id.(primitive.ObjectID); ok {
		return oid.Hex()
	}
	return ""
}
