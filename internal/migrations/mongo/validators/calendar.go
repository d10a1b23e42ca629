package validators

import "go.mongodb.org/mongo-driver/bson"

var CalendarCellValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"room_id",
			"date",
			"available",
			"blocked",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"room_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"date": bson.M{
				"bsonType": "date",
			},

			"available": bson.M{
				"bsonType": "bool",
			},

			"reservation_id": bson.M{
				"bsonType": "string",
			},

			"blocked": bson.M{
				"bsonType": "bool",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

var ManualBlockValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"room_id",
			"date",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"room_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"date": bson.M{
				"bsonType": "date",
			},

			"reason": bson.M{
				"bsonType":  "string",
				"maxLength": 200,
			},

			"created_by": bson.M{
				"bsonType": "string",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
