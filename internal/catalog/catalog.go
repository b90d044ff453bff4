// Package catalog declares the log store's collections as data: required
// fields and types, enum constraints, retention windows, and the index
// plan. Provisioning and validation both consume this catalog, so schema
// and retention can evolve through configuration without touching the
// writer.
package catalog

import (
	"fmt"
	"os"

	"github.com/qscale/logstore/pkg/record"
	"gopkg.in/yaml.v3"
)

// Field types understood by the validator and the $jsonSchema renderer.
const (
	TypeString = "string"
	TypeDate   = "date"
	TypeObject = "object"
	TypeAny    = "any"
)

// FieldSpec declares one document field.
type FieldSpec struct {
	Name     string   `yaml:"name"`
	Type     string   `yaml:"type"`
	Required bool     `yaml:"required"`
	Enum     []string `yaml:"enum,omitempty"`
}

// IndexKey is one component of an index key pattern. Sort is 1 or -1;
// Text marks a text-index component (Sort is ignored).
type IndexKey struct {
	Field string `yaml:"field"`
	Sort  int    `yaml:"sort"`
	Text  bool   `yaml:"text,omitempty"`
}

// IndexSpec declares one index of the plan.
type IndexSpec struct {
	Name   string     `yaml:"name,omitempty"`
	Keys   []IndexKey `yaml:"keys"`
	Unique bool       `yaml:"unique,omitempty"`
	Sparse bool       `yaml:"sparse,omitempty"`
}

// CollectionSpec declares one collection: its wire name, field schema,
// retention window (0 = keep forever) and index plan. The TTL index is
// derived from RetentionSeconds rather than listed in Indexes.
type CollectionSpec struct {
	Kind             record.Kind `yaml:"kind"`
	Collection       string      `yaml:"collection"`
	Fields           []FieldSpec `yaml:"fields"`
	RetentionSeconds int32       `yaml:"retention_seconds"`
	TimeField        string      `yaml:"time_field,omitempty"`
	Indexes          []IndexSpec `yaml:"indexes"`
}

// Catalog is the full set of collection specs, keyed by kind.
type Catalog struct {
	specs map[record.Kind]CollectionSpec
}

// Spec returns the spec for a kind.
func (c *Catalog) Spec(kind record.Kind) (CollectionSpec, error) {
	spec, ok := c.specs[kind]
	if !ok {
		return CollectionSpec{}, fmt.Errorf("%w: %q", record.ErrUnknownKind, kind)
	}
	return spec, nil
}

// Specs returns all specs in a stable order: the three log collections
// first, config last, matching provisioning order.
func (c *Catalog) Specs() []CollectionSpec {
	out := make([]CollectionSpec, 0, len(c.specs))
	for _, kind := range []record.Kind{record.KindActivity, record.KindOperation, record.KindSubmission, record.KindConfig} {
		if spec, ok := c.specs[kind]; ok {
			out = append(out, spec)
		}
	}
	return out
}

// LogSpecs returns the specs that carry a retention window.
func (c *Catalog) LogSpecs() []CollectionSpec {
	var out []CollectionSpec
	for _, spec := range c.Specs() {
		if spec.RetentionSeconds > 0 {
			out = append(out, spec)
		}
	}
	return out
}

// Field returns the field spec with the given name, if declared.
func (s CollectionSpec) Field(name string) (FieldSpec, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// New builds a catalog from specs, validating basic consistency.
func New(specs []CollectionSpec) (*Catalog, error) {
	byKind := make(map[record.Kind]CollectionSpec, len(specs))
	for _, spec := range specs {
		if spec.Kind == "" || spec.Collection == "" {
			return nil, fmt.Errorf("catalog: spec missing kind or collection name")
		}
		if _, dup := byKind[spec.Kind]; dup {
			return nil, fmt.Errorf("catalog: duplicate kind %q", spec.Kind)
		}
		if spec.RetentionSeconds > 0 && spec.TimeField == "" {
			return nil, fmt.Errorf("catalog: %s: retention requires a time_field", spec.Collection)
		}
		for _, f := range spec.Fields {
			switch f.Type {
			case TypeString, TypeDate, TypeObject, TypeAny:
			default:
				return nil, fmt.Errorf("catalog: %s: field %q has unknown type %q", spec.Collection, f.Name, f.Type)
			}
		}
		byKind[spec.Kind] = spec
	}
	return &Catalog{specs: byKind}, nil
}

// Load reads collection specs from a YAML file, replacing the defaults
// wholesale. An empty path yields the default catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	var file struct {
		Collections []CollectionSpec `yaml:"collections"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", path, err)
	}
	return New(file.Collections)
}

// Default returns the built-in catalog for the questionnaire/scale
// platform's four collections.
func Default() (*Catalog, error) {
	return New(defaultSpecs())
}

// Retention windows for the log collections.
const (
	activityRetentionSeconds   = 31536000 // 1 year
	operationRetentionSeconds  = 31536000 // 1 year
	submissionRetentionSeconds = 94608000 // 3 years
)

func defaultSpecs() []CollectionSpec {
	return []CollectionSpec{
		{
			Kind:       record.KindActivity,
			Collection: "activity_logs",
			Fields: []FieldSpec{
				{Name: "type", Type: TypeString, Required: true},
				{Name: "user_id", Type: TypeString},
				{Name: "timestamp", Type: TypeDate, Required: true},
				{Name: "ip_address", Type: TypeString, Required: true},
				{Name: "user_agent", Type: TypeString},
				{Name: "details", Type: TypeObject},
			},
			RetentionSeconds: activityRetentionSeconds,
			TimeField:        "timestamp",
			Indexes: []IndexSpec{
				{Keys: []IndexKey{{Field: "type", Sort: 1}}},
				{Keys: []IndexKey{{Field: "timestamp", Sort: 1}}},
				{Keys: []IndexKey{{Field: "user_id", Sort: 1}}},
				{Keys: []IndexKey{{Field: "ip_address", Sort: 1}}},
				{Keys: []IndexKey{{Field: "type", Sort: 1}, {Field: "timestamp", Sort: -1}}},
				{Name: "user_type_time_idx", Keys: []IndexKey{
					{Field: "user_id", Sort: 1},
					{Field: "type", Sort: 1},
					{Field: "timestamp", Sort: -1},
				}},
				{Name: "activity_text_idx", Keys: []IndexKey{
					{Field: "details.message", Text: true},
					{Field: "user_agent", Text: true},
				}},
				{Name: "dedup_key_idx", Keys: []IndexKey{{Field: "dedup_key", Sort: 1}}, Unique: true, Sparse: true},
			},
		},
		{
			Kind:       record.KindOperation,
			Collection: "operation_logs",
			Fields: []FieldSpec{
				{Name: "type", Type: TypeString, Required: true},
				{Name: "operator", Type: TypeString},
				{Name: "timestamp", Type: TypeDate, Required: true},
				{Name: "resource_type", Type: TypeString},
				{Name: "resource_id", Type: TypeString},
				{Name: "action", Type: TypeString},
				{Name: "changes", Type: TypeObject},
			},
			RetentionSeconds: operationRetentionSeconds,
			TimeField:        "timestamp",
			Indexes: []IndexSpec{
				{Keys: []IndexKey{{Field: "type", Sort: 1}}},
				{Keys: []IndexKey{{Field: "timestamp", Sort: 1}}},
				{Keys: []IndexKey{{Field: "operator", Sort: 1}}},
				{Keys: []IndexKey{{Field: "resource_type", Sort: 1}}},
				{Keys: []IndexKey{{Field: "resource_id", Sort: 1}}},
				{Keys: []IndexKey{{Field: "resource_type", Sort: 1}, {Field: "resource_id", Sort: 1}}},
				{Keys: []IndexKey{{Field: "operator", Sort: 1}, {Field: "timestamp", Sort: -1}}},
				{Name: "audit_query_idx", Keys: []IndexKey{
					{Field: "resource_type", Sort: 1},
					{Field: "action", Sort: 1},
					{Field: "timestamp", Sort: -1},
				}},
				{Name: "operation_text_idx", Keys: []IndexKey{
					{Field: "action", Text: true},
					{Field: "changes", Text: true},
				}},
				{Name: "dedup_key_idx", Keys: []IndexKey{{Field: "dedup_key", Sort: 1}}, Unique: true, Sparse: true},
			},
		},
		{
			Kind:       record.KindSubmission,
			Collection: "submission_logs",
			Fields: []FieldSpec{
				{Name: "type", Type: TypeString, Required: true, Enum: []string{
					record.TypeQuestionnaireSubmission,
					record.TypeScaleSubmission,
				}},
				{Name: "questionnaire_id", Type: TypeString, Required: true},
				{Name: "user_id", Type: TypeString},
				{Name: "timestamp", Type: TypeDate, Required: true},
				{Name: "answers", Type: TypeObject},
				{Name: "metadata", Type: TypeObject},
			},
			RetentionSeconds: submissionRetentionSeconds,
			TimeField:        "timestamp",
			Indexes: []IndexSpec{
				{Keys: []IndexKey{{Field: "type", Sort: 1}}},
				{Keys: []IndexKey{{Field: "questionnaire_id", Sort: 1}}},
				{Keys: []IndexKey{{Field: "user_id", Sort: 1}}},
				{Keys: []IndexKey{{Field: "timestamp", Sort: 1}}},
				{Keys: []IndexKey{{Field: "questionnaire_id", Sort: 1}, {Field: "timestamp", Sort: -1}}},
				{Keys: []IndexKey{{Field: "user_id", Sort: 1}, {Field: "timestamp", Sort: -1}}},
				{Keys: []IndexKey{{Field: "type", Sort: 1}, {Field: "questionnaire_id", Sort: 1}}},
				{Name: "submission_stats_idx", Keys: []IndexKey{
					{Field: "type", Sort: 1},
					{Field: "questionnaire_id", Sort: 1},
					{Field: "timestamp", Sort: -1},
				}},
				{Name: "dedup_key_idx", Keys: []IndexKey{{Field: "dedup_key", Sort: 1}}, Unique: true, Sparse: true},
			},
		},
		{
			Kind:       record.KindConfig,
			Collection: "system_configs",
			Fields: []FieldSpec{
				{Name: "key", Type: TypeString, Required: true},
				{Name: "value", Type: TypeAny, Required: true},
				{Name: "description", Type: TypeString},
				{Name: "updated_at", Type: TypeDate, Required: true},
				{Name: "updated_by", Type: TypeString},
			},
			Indexes: []IndexSpec{
				{Keys: []IndexKey{{Field: "key", Sort: 1}}, Unique: true},
				{Keys: []IndexKey{{Field: "updated_at", Sort: 1}}},
				{Keys: []IndexKey{{Field: "updated_by", Sort: 1}}},
			},
		},
	}
}
