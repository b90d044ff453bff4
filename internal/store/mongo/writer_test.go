package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/qscale/logstore/internal/store"
	"github.com/qscale/logstore/pkg/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAppendActivity(t *testing.T) {
	env := setupTestEnv(t)
	writer := NewWriter(env.Provider, env.Catalog)
	ctx := context.Background()

	ts := time.Now().Truncate(time.Millisecond)
	rec := record.ActivityRecord{
		Type:      "user_activity",
		Timestamp: ts,
		IPAddress: "127.0.0.1",
	}

	id, err := writer.Append(ctx, record.KindActivity, rec.Document(), nil)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	oid, err := primitive.ObjectIDFromHex(id)
	require.NoError(t, err)

	var stored record.ActivityRecord
	err = env.DB.Collection("activity_logs").
		FindOne(ctx, bson.M{"_id": oid}).Decode(&stored)
	require.NoError(t, err)
	assert.Equal(t, "user_activity", stored.Type)
	assert.Equal(t, "127.0.0.1", stored.IPAddress)
	assert.True(t, ts.Equal(stored.Timestamp.Truncate(time.Millisecond)))
}

func TestAppendRejectsInvalidRecord(t *testing.T) {
	env := setupTestEnv(t)
	writer := NewWriter(env.Provider, env.Catalog)
	reader := NewReader(env.Provider, env.Catalog)
	ctx := context.Background()

	before, err := reader.Count(ctx, record.KindOperation)
	require.NoError(t, err)

	// Missing occurred-at timestamp.
	_, err = writer.Append(ctx, record.KindOperation, record.Mapping{
		"type": "user_creation",
	}, nil)
	require.Error(t, err)
	assert.True(t, record.IsValidation(err))

	after, err := reader.Count(ctx, record.KindOperation)
	require.NoError(t, err)
	assert.Equal(t, before, after, "rejected record must not be persisted")
}

func TestAppendSubmissionEnum(t *testing.T) {
	env := setupTestEnv(t)
	writer := NewWriter(env.Provider, env.Catalog)
	ctx := context.Background()

	for _, typ := range []string{record.TypeQuestionnaireSubmission, record.TypeScaleSubmission} {
		rec := record.SubmissionRecord{
			Type:            typ,
			QuestionnaireID: "Q1",
			Timestamp:       time.Now(),
		}
		_, err := writer.Append(ctx, record.KindSubmission, rec.Document(), nil)
		assert.NoError(t, err, typ)
	}

	rec := record.SubmissionRecord{
		Type:            "interview_submission",
		QuestionnaireID: "Q1",
		Timestamp:       time.Now(),
	}
	_, err := writer.Append(ctx, record.KindSubmission, rec.Document(), nil)
	require.Error(t, err)
	assert.True(t, record.IsValidation(err))
}

func TestAppendUnknownKind(t *testing.T) {
	env := setupTestEnv(t)
	writer := NewWriter(env.Provider, env.Catalog)

	_, err := writer.Append(context.Background(), record.Kind("bogus"), record.Mapping{}, nil)
	assert.ErrorIs(t, err, record.ErrUnknownKind)
}

func TestAppendConfigKindRejected(t *testing.T) {
	env := setupTestEnv(t)
	writer := NewWriter(env.Provider, env.Catalog)

	_, err := writer.Append(context.Background(), record.KindConfig, record.Mapping{
		"key": "k", "value": 1, "updated_at": time.Now(),
	}, nil)
	require.Error(t, err)
	assert.True(t, record.IsValidation(err))
}

func TestAppendDedupKey(t *testing.T) {
	env := setupTestEnv(t)
	writer := NewWriter(env.Provider, env.Catalog)
	reader := NewReader(env.Provider, env.Catalog)
	ctx := context.Background()

	// The sparse unique index comes from the catalog's index plan.
	spec, err := env.Catalog.Spec(record.KindActivity)
	require.NoError(t, err)
	_, err = env.DB.Collection(spec.Collection).Indexes().CreateMany(ctx, spec.IndexModels())
	require.NoError(t, err)

	rec := record.ActivityRecord{
		Type:      "user_activity",
		Timestamp: time.Now(),
		IPAddress: "10.0.0.1",
	}
	opts := &store.AppendOptions{DedupKey: store.NewDedupKey()}

	first, err := writer.Append(ctx, record.KindActivity, rec.Document(), opts)
	require.NoError(t, err)

	// Retry after an ambiguous failure: same record, same key.
	second, err := writer.Append(ctx, record.KindActivity, rec.Document(), opts)
	require.NoError(t, err)
	assert.Equal(t, first, second, "retried append must resolve to the stored record")

	n, err := reader.Count(ctx, record.KindActivity)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestAppendWithoutDedupKeyDuplicates(t *testing.T) {
	env := setupTestEnv(t)
	writer := NewWriter(env.Provider, env.Catalog)
	reader := NewReader(env.Provider, env.Catalog)
	ctx := context.Background()

	rec := record.ActivityRecord{
		Type:      "user_activity",
		Timestamp: time.Now(),
		IPAddress: "10.0.0.2",
	}
	_, err := writer.Append(ctx, record.KindActivity, rec.Document(), nil)
	require.NoError(t, err)
	_, err = writer.Append(ctx, record.KindActivity, rec.Document(), nil)
	require.NoError(t, err)

	n, err := reader.Count(ctx, record.KindActivity)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n, "without a dedup key, retries may duplicate")
}

func TestUpsertConfigLastWriteWins(t *testing.T) {
	env := setupTestEnv(t)
	writer := NewWriter(env.Provider, env.Catalog)
	reader := NewReader(env.Provider, env.Catalog)
	ctx := context.Background()

	require.NoError(t, writer.UpsertConfig(ctx, "retention_days", 365, "retention window", "ops"))
	require.NoError(t, writer.UpsertConfig(ctx, "retention_days", 730, "", "admin"))

	entry, err := reader.GetConfig(ctx, "retention_days")
	require.NoError(t, err)
	assert.EqualValues(t, 730, entry.Value)
	assert.Equal(t, "admin", entry.UpdatedBy)
	assert.False(t, entry.UpdatedAt.IsZero())
	// First write's description survives; the second write omitted it.
	assert.Equal(t, "retention window", entry.Description)

	n, err := reader.Count(ctx, record.KindConfig)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n, "upserts on one key must never create two entries")
}

func TestUpsertConfigValidation(t *testing.T) {
	env := setupTestEnv(t)
	writer := NewWriter(env.Provider, env.Catalog)
	ctx := context.Background()

	err := writer.UpsertConfig(ctx, "", 1, "", "")
	require.Error(t, err)
	assert.True(t, record.IsValidation(err))

	err = writer.UpsertConfig(ctx, "k", nil, "", "")
	require.Error(t, err)
	assert.True(t, record.IsValidation(err))
}
