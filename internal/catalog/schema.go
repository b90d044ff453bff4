package catalog

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// JSONSchema renders the spec as a Mongo $jsonSchema validator document,
// mirroring what the in-process validator enforces. The engine-side
// validator is belt-and-braces: the in-process check remains the
// authoritative contract for writers.
func (s CollectionSpec) JSONSchema() bson.M {
	required := bson.A{}
	properties := bson.M{}
	for _, f := range s.Fields {
		if f.Required {
			required = append(required, f.Name)
		}
		prop := bson.M{}
		switch f.Type {
		case TypeString:
			prop["bsonType"] = "string"
		case TypeDate:
			prop["bsonType"] = "date"
		case TypeObject:
			prop["bsonType"] = "object"
		case TypeAny:
			// no bsonType constraint
		}
		if len(f.Enum) > 0 {
			enum := bson.A{}
			for _, v := range f.Enum {
				enum = append(enum, v)
			}
			prop["enum"] = enum
		}
		properties[f.Name] = prop
	}

	schema := bson.M{
		"bsonType":   "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return bson.M{"$jsonSchema": schema}
}

// IndexModels renders the spec's index plan as driver index models. The
// TTL index on the time field is derived from RetentionSeconds.
func (s CollectionSpec) IndexModels() []mongo.IndexModel {
	models := make([]mongo.IndexModel, 0, len(s.Indexes)+1)
	for _, idx := range s.Indexes {
		keys := bson.D{}
		for _, k := range idx.Keys {
			if k.Text {
				keys = append(keys, bson.E{Key: k.Field, Value: "text"})
				continue
			}
			sort := k.Sort
			if sort == 0 {
				sort = 1
			}
			keys = append(keys, bson.E{Key: k.Field, Value: sort})
		}

		opts := options.Index()
		if idx.Name != "" {
			opts.SetName(idx.Name)
		}
		if idx.Unique {
			opts.SetUnique(true)
		}
		if idx.Sparse {
			opts.SetSparse(true)
		}
		models = append(models, mongo.IndexModel{Keys: keys, Options: opts})
	}

	if s.RetentionSeconds > 0 {
		models = append(models, mongo.IndexModel{
			Keys:    bson.D{{Key: s.TimeField, Value: -1}},
			Options: options.Index().SetExpireAfterSeconds(s.RetentionSeconds),
		})
	}

	return models
}
