package days

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// MarshalBSONValue stores the day as a BSON datetime at midnight UTC so range
// filters and indexes work on the native type.
func (d Day) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(d.t)
}

func (d *Day) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	if t == bson.TypeNull {
		*d = Day{}
		return nil
	}
	tm, ok := raw.TimeOK()
	if !ok {
		return fmt.Errorf("cannot decode %s into days.Day", t)
	}
	*d = Of(tm)
	return nil
}
