package database

import (
	"strconv"
	"time"
	"ywbilling/entity"
	"ywbilling/internal/invoice"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func toInvoice(doc bson.M) (*entity.Invoice, error) {
	rec, _ := normalize(map[string]any(doc)).(map[string]any)
	delete(rec, "_id")
	return invoice.Convert(invoice.Record(rec))
}

// normalize turns driver types into plain maps, slices and times
func normalize(v any) any {
	switch val := v.(type) {
	case primitive.D:
		m := make(map[string]any, len(val))
		for _, e := range val {
			m[e.Key] = normalize(e.Value)
		}
		return m
	case primitive.M:
		return normalizeMap(val)
	case map[string]any:
		return normalizeMap(val)
	case primitive.A:
		return normalizeSlice(val)
	case []any:
		return normalizeSlice(val)
	case primitive.DateTime:
		return val.Time().UTC()
	case primitive.ObjectID:
		return val.Hex()
	case primitive.Decimal128:
		f, err := strconv.ParseFloat(val.String(), 64)
		if err != nil {
			return val.String()
		}
		return f
	case time.Time:
		return val.UTC()
	}
	return v
}

func normalizeMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = normalize(v)
	}
	return out
}

func normalizeSlice(in []any) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = normalize(v)
	}
	return out
}
