// Package validator enforces the per-collection write contract in
// process. It runs on every append regardless of whether the engine also
// carries a $jsonSchema validator, so the contract stays testable
// against any storage backend.
package validator

import (
	"fmt"
	"time"

	"github.com/qscale/logstore/internal/catalog"
	"github.com/qscale/logstore/pkg/record"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Validate checks a candidate document against its collection spec:
// required fields present, declared types matched, enum constraints
// honored. Optional fields may be absent but must match their declared
// type when present. The check is pure; a failure is a permanent
// rejection of the record.
func Validate(spec catalog.CollectionSpec, doc record.Mapping) error {
	if doc == nil {
		return &record.ValidationError{Collection: spec.Collection, Reason: "document is nil"}
	}

	for _, f := range spec.Fields {
		val, present := doc[f.Name]
		if !present {
			if f.Required {
				return &record.ValidationError{
					Collection: spec.Collection,
					Field:      f.Name,
					Reason:     "missing required field",
				}
			}
			continue
		}
		if err := checkType(spec.Collection, f, val); err != nil {
			return err
		}
	}

	return nil
}

func checkType(collection string, f catalog.FieldSpec, val interface{}) error {
	switch f.Type {
	case catalog.TypeString:
		s, ok := val.(string)
		if !ok {
			return typeError(collection, f.Name, "string", val)
		}
		if len(f.Enum) > 0 && !contains(f.Enum, s) {
			return &record.ValidationError{
				Collection: collection,
				Field:      f.Name,
				Reason:     fmt.Sprintf("value %q not in %v", s, f.Enum),
			}
		}
	case catalog.TypeDate:
		switch t := val.(type) {
		case time.Time:
			if t.IsZero() {
				return &record.ValidationError{
					Collection: collection,
					Field:      f.Name,
					Reason:     "timestamp is zero",
				}
			}
		case primitive.DateTime:
		default:
			return typeError(collection, f.Name, "timestamp", val)
		}
	case catalog.TypeObject:
		switch val.(type) {
		case record.Mapping, map[string]interface{}, bson.M, bson.D:
		default:
			return typeError(collection, f.Name, "mapping", val)
		}
	case catalog.TypeAny:
	}
	return nil
}

func typeError(collection, field, want string, got interface{}) error {
	return &record.ValidationError{
		Collection: collection,
		Field:      field,
		Reason:     fmt.Sprintf("expected %s, got %T", want, got),
	}
}

func contains(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
