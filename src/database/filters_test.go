package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestScopedIDFiltersByCompany(t *testing.T) {
	id := primitive.NewObjectID()
	companyID := primitive.NewObjectID()

	filter := ScopedID(id, companyID)

	assert.Equal(t, id, filter["_id"])
	assert.Equal(t, companyID, filter["companyId"])
	assert.Len(t, filter, 2)
}
