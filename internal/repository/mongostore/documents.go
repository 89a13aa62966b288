package mongostore

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"unimart/internal/models"
)

// accountDoc is the stored account shape; users
// additionally carry their listings in Products.
type accountDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Email     string             `bson:"email"`
	Password  string             `bson:"password"`
	Products  []productDoc       `bson:"Products,omitempty"`
	CreatedAt time.Time          `bson:"createdAt,omitempty"`
	UpdatedAt time.Time          `bson:"updatedAt,omitempty"`
}

type productDoc struct {
	ID              primitive.ObjectID `bson:"_id"`
	Name            string             `bson:"name"`
	Price           float64            `bson:"price"`
	RollNo          string             `bson:"rollno"`
	CollegeName     string             `bson:"collegename"`
	GoogleDriveLink string             `bson:"googledrivelink"`
	Description     string             `bson:"description"`
	Dept            string             `bson:"dept"`
	PhoneNo         string             `bson:"phoneno"`
	ApprovedStatus  bool               `bson:"approved_status"`
	ApprovedString  string             `bson:"approved_string"`
	PhotoKey        string             `bson:"photo_key,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt,omitempty"`
	UpdatedAt       time.Time          `bson:"updatedAt,omitempty"`
}

func (d accountDoc) toModel(kind models.AccountKind) models.Account {
	return models.Account{
		ID:           d.ID.Hex(),
		Kind:         kind,
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: []byte(d.Password),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func (p productDoc) toModel(ownerID primitive.ObjectID) models.Listing {
	l := models.Listing{
		ID:              p.ID.Hex(),
		OwnerID:         ownerID.Hex(),
		Name:            p.Name,
		Price:           p.Price,
		RollNo:          p.RollNo,
		CollegeName:     p.CollegeName,
		GoogleDriveLink: p.GoogleDriveLink,
		Description:     p.Description,
		Dept:            p.Dept,
		PhoneNo:         p.PhoneNo,
		ApprovedStatus:  p.ApprovedStatus,
		ApprovedString:  models.ApprovalState(p.ApprovedString),
		PhotoKey:        p.PhotoKey,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
	// Older documents may carry only one of the two approval fields.
	l.Normalize()
	return l
}

func productFromModel(id primitive.ObjectID, l models.Listing) productDoc {
	return productDoc{
		ID:              id,
		Name:            l.Name,
		Price:           l.Price,
		RollNo:          l.RollNo,
		CollegeName:     l.CollegeName,
		GoogleDriveLink: l.GoogleDriveLink,
		Description:     l.Description,
		Dept:            l.Dept,
		PhoneNo:         l.PhoneNo,
		ApprovedStatus:  l.ApprovedStatus,
		ApprovedString:  string(l.ApprovedString),
		PhotoKey:        l.PhotoKey,
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
	}
}
