package database

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ScopedID builds the filter for addressing a tenant-owned document by id.
// Every by-id query on tenant data goes through this so one company cannot
// read or mutate another company's documents.
func ScopedID(id, companyID primitive.ObjectID) bson.M {
	return bson.M{"_id": id, "companyId": companyID}
}
