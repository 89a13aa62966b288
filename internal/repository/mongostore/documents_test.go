package mongostore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"unimart/internal/models"
	"unimart/internal/repository"
)

func TestProductDocDecodesLegacyShape(t *testing.T) {
	owner := primitive.NewObjectID()
	pid := primitive.NewObjectID()

	raw, err := bson.Marshal(bson.M{
		"_id":             pid,
		"name":            "Calculator",
		"price":           int32(250),
		"rollno":          "21A1",
		"collegename":     "GVP",
		"googledrivelink": "https://drive.example/x",
		"description":     "fx-991",
		"dept":            "ECE",
		"phoneno":         "99999",
		"approved_status": true,
		"__v":             0,
	})
	require.NoError(t, err)

	var doc productDoc
	require.NoError(t, bson.Unmarshal(raw, &doc))

	l := doc.toModel(owner)
	assert.Equal(t, pid.Hex(), l.ID)
	assert.Equal(t, owner.Hex(), l.OwnerID)
	assert.Equal(t, 250.0, l.Price)
	assert.Equal(t, models.StateApproved, l.ApprovedString)
	assert.True(t, l.ApprovedStatus)
}

func TestProductRoundTripKeepsState(t *testing.T) {
	l := models.Listing{Name: "Lab coat", Price: 0}
	l.MarkPending()
	require.NoError(t, l.Reject())

	pid := primitive.NewObjectID()
	doc := productFromModel(pid, l)
	assert.Equal(t, "Rejected", doc.ApprovedString)
	assert.False(t, doc.ApprovedStatus)

	back := doc.toModel(primitive.NewObjectID())
	assert.Equal(t, models.StateRejected, back.State())
}

func TestSearchFilter(t *testing.T) {
	assert.Empty(t, searchFilter(repository.ListingQuery{}))

	f := searchFilter(repository.ListingQuery{ApprovedOnly: true, NameContains: "a.b"})
	assert.Equal(t, true, f["Products.approved_status"])
	assert.Equal(t, primitive.Regex{Pattern: `a\.b`, Options: "i"}, f["Products.name"])

	f = searchFilter(repository.ListingQuery{State: models.StatePending})
	assert.Equal(t, "Pending", f["Products.approved_string"])
}
