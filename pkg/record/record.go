package record

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Kind identifies one of the four record collections.
type Kind string

const (
	KindActivity   Kind = "activity"
	KindOperation  Kind = "operation"
	KindSubmission Kind = "submission"
	KindConfig     Kind = "config"
)

// Submission type values accepted by the submission_logs validator.
const (
	TypeQuestionnaireSubmission = "questionnaire_submission"
	TypeScaleSubmission         = "scale_submission"
)

// Mapping is an opaque free-form payload (details, changes, answers,
// metadata). The store never interprets its contents beyond "is a mapping".
type Mapping map[string]interface{}

// ActivityRecord is an end-user action entry in activity_logs.
//
// Required on write: Type, Timestamp, IPAddress.
type ActivityRecord struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Type      string             `bson:"type" json:"type"`
	UserID    string             `bson:"user_id,omitempty" json:"user_id,omitempty"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
	IPAddress string             `bson:"ip_address" json:"ip_address"`
	UserAgent string             `bson:"user_agent,omitempty" json:"user_agent,omitempty"`
	Details   Mapping            `bson:"details,omitempty" json:"details,omitempty"`
}

// OperationRecord is an administrative/system action entry in
// operation_logs, kept for audit purposes.
//
// Required on write: Type, Timestamp.
type OperationRecord struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Type         string             `bson:"type" json:"type"`
	Operator     string             `bson:"operator,omitempty" json:"operator,omitempty"`
	Timestamp    time.Time          `bson:"timestamp" json:"timestamp"`
	ResourceType string             `bson:"resource_type,omitempty" json:"resource_type,omitempty"`
	ResourceID   string             `bson:"resource_id,omitempty" json:"resource_id,omitempty"`
	Action       string             `bson:"action,omitempty" json:"action,omitempty"`
	Changes      Mapping            `bson:"changes,omitempty" json:"changes,omitempty"`
}

// SubmissionRecord is a completed questionnaire or scale submission
// entry in submission_logs.
//
// Required on write: Type (one of the submission type constants),
// QuestionnaireID, Timestamp.
type SubmissionRecord struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Type            string             `bson:"type" json:"type"`
	QuestionnaireID string             `bson:"questionnaire_id" json:"questionnaire_id"`
	UserID          string             `bson:"user_id,omitempty" json:"user_id,omitempty"`
	Timestamp       time.Time          `bson:"timestamp" json:"timestamp"`
	Answers         Mapping            `bson:"answers,omitempty" json:"answers,omitempty"`
	Metadata        Mapping            `bson:"metadata,omitempty" json:"metadata,omitempty"`
}

// ConfigEntry is a keyed configuration value in system_configs.
// Key is globally unique; writes to an existing key replace the value.
type ConfigEntry struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Key         string             `bson:"key" json:"key"`
	Value       interface{}        `bson:"value" json:"value"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
	UpdatedBy   string             `bson:"updated_by,omitempty" json:"updated_by,omitempty"`
}

// Document flattens the record into the write-path mapping. Optional
// fields that are zero are omitted so the validator sees them as absent.
func (r ActivityRecord) Document() Mapping {
	doc := Mapping{
		"type":       r.Type,
		"timestamp":  r.Timestamp,
		"ip_address": r.IPAddress,
	}
	putString(doc, "user_id", r.UserID)
	putString(doc, "user_agent", r.UserAgent)
	putMapping(doc, "details", r.Details)
	return doc
}

func (r OperationRecord) Document() Mapping {
	doc := Mapping{
		"type":      r.Type,
		"timestamp": r.Timestamp,
	}
	putString(doc, "operator", r.Operator)
	putString(doc, "resource_type", r.ResourceType)
	putString(doc, "resource_id", r.ResourceID)
	putString(doc, "action", r.Action)
	putMapping(doc, "changes", r.Changes)
	return doc
}

func (r SubmissionRecord) Document() Mapping {
	doc := Mapping{
		"type":             r.Type,
		"questionnaire_id": r.QuestionnaireID,
		"timestamp":        r.Timestamp,
	}
	putString(doc, "user_id", r.UserID)
	putMapping(doc, "answers", r.Answers)
	putMapping(doc, "metadata", r.Metadata)
	return doc
}

func putString(doc Mapping, key, val string) {
	if val != "" {
		doc[key] = val
	}
}

func putMapping(doc Mapping, key string, val Mapping) {
	if val != nil {
		doc[key] = map[string]interface{}(val)
	}
}
