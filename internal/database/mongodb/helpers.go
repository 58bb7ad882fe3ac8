package mongodb

import (
	"sort"

	"github.com/Rana718/docstorm/internal/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Pipeline groups by g.Field, counts into g.CountAs(), moves the group key
// back onto the field, drops _id and sorts by count descending.
func Pipeline(g types.GroupCount) mongo.Pipeline {
	count := g.CountAs()
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$" + g.Field},
			{Key: count, Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$set", Value: bson.D{{Key: g.Field, Value: "$_id"}}}},
		{{Key: "$unset", Value: bson.A{"_id"}}},
		{{Key: "$sort", Value: bson.D{{Key: count, Value: -1}}}},
	}
}

// toBSON lays fields out in schema order. Fields the schema does not name
// follow, sorted by name.
func toBSON(doc types.Document, names []string) bson.D {
	out := make(bson.D, 0, len(doc))
	placed := make(map[string]bool, len(names))
	for _, k := range names {
		if v, ok := doc[k]; ok {
			out = append(out, bson.E{Key: k, Value: v})
			placed[k] = true
		}
	}

	var rest []string
	for k := range doc {
		if !placed[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		out = append(out, bson.E{Key: k, Value: doc[k]})
	}
	return out
}

func fromBSON(m bson.M) types.Document {
	doc := make(types.Document, len(m))
	for k, v := range m {
		doc[k] = convertBSONValue(v)
	}
	return doc
}

// convertBSONValue converts BSON values to standard Go types
func convertBSONValue(v interface{}) interface{} {
	switch val := v.(type) {
	case bson.M:
		result := make(map[string]interface{})
		for k, v := range val {
			result[k] = convertBSONValue(v)
		}
		return result
	case bson.A:
		result := make([]interface{}, len(val))
		for i, v := range val {
			result[i] = convertBSONValue(v)
		}
		return result
	case bson.D:
		result := make(map[string]interface{})
		for _, elem := range val {
			result[elem.Key] = convertBSONValue(elem.Value)
		}
		return result
	case primitive.DateTime:
		return val.Time().UTC()
	case int32:
		return int64(val)
	default:
		return v
	}
}
