package record

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityRecordDocument(t *testing.T) {
	now := time.Now()

	full := ActivityRecord{
		Type:      "user_activity",
		UserID:    "u-1",
		Timestamp: now,
		IPAddress: "127.0.0.1",
		UserAgent: "test-agent",
		Details:   Mapping{"message": "hello"},
	}
	doc := full.Document()
	assert.Equal(t, "user_activity", doc["type"])
	assert.Equal(t, now, doc["timestamp"])
	assert.Equal(t, "127.0.0.1", doc["ip_address"])
	assert.Equal(t, "u-1", doc["user_id"])
	assert.Equal(t, "test-agent", doc["user_agent"])
	require.Contains(t, doc, "details")

	minimal := ActivityRecord{Type: "user_activity", Timestamp: now, IPAddress: "127.0.0.1"}
	doc = minimal.Document()
	assert.NotContains(t, doc, "user_id")
	assert.NotContains(t, doc, "user_agent")
	assert.NotContains(t, doc, "details")
}

func TestOperationRecordDocument(t *testing.T) {
	now := time.Now()

	doc := OperationRecord{
		Type:         "questionnaire_update",
		Operator:     "admin",
		Timestamp:    now,
		ResourceType: "questionnaire",
		ResourceID:   "Q1",
		Action:       "update",
		Changes:      Mapping{"title": "new"},
	}.Document()
	assert.Equal(t, "questionnaire_update", doc["type"])
	assert.Equal(t, "admin", doc["operator"])
	assert.Equal(t, "Q1", doc["resource_id"])

	minimal := OperationRecord{Type: "index_creation", Timestamp: now}.Document()
	assert.Len(t, minimal, 2)
}

func TestSubmissionRecordDocument(t *testing.T) {
	now := time.Now()
	doc := SubmissionRecord{
		Type:            TypeQuestionnaireSubmission,
		QuestionnaireID: "Q1",
		Timestamp:       now,
		Answers:         Mapping{"q1": "yes"},
	}.Document()
	assert.Equal(t, TypeQuestionnaireSubmission, doc["type"])
	assert.Equal(t, "Q1", doc["questionnaire_id"])
	assert.Contains(t, doc, "answers")
	assert.NotContains(t, doc, "metadata")
	assert.NotContains(t, doc, "user_id")
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Collection: "activity_logs", Field: "timestamp", Reason: "missing required field"}
	assert.Contains(t, err.Error(), "activity_logs")
	assert.Contains(t, err.Error(), `"timestamp"`)

	noField := &ValidationError{Collection: "activity_logs", Reason: "document is nil"}
	assert.Equal(t, "activity_logs: document is nil", noField.Error())
}

func TestErrorClassification(t *testing.T) {
	ve := &ValidationError{Collection: "c", Field: "f", Reason: "r"}
	assert.True(t, IsValidation(ve))
	assert.False(t, IsStorage(ve))

	cause := errors.New("connection reset")
	se := &StorageError{Op: "insert", Err: cause}
	assert.True(t, IsStorage(se))
	assert.False(t, IsValidation(se))
	assert.ErrorIs(t, se, cause)

	pe := &ProvisioningError{Step: "create user", Err: cause}
	assert.ErrorIs(t, pe, cause)
	assert.Contains(t, pe.Error(), "create user")

	wrapped := fmt.Errorf("append failed: %w", ve)
	assert.True(t, IsValidation(wrapped))
}
