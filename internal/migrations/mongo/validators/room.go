package validators

import "go.mongodb.org/mongo-driver/bson"

var RoomValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"room_number",
			"capacity",
			"price_per_night_cents",
			"is_active",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"room_number": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 20,
			},

			"capacity": bson.M{
				"bsonType": intType,
				"minimum":  1,
			},

			"price_per_night_cents": bson.M{
				"bsonType": intType,
				"minimum":  0,
			},

			"is_active": bson.M{
				"bsonType": "bool",
			},
		},
	},
}
