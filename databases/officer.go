package databases

// go generate: mockery --name OfficerDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/linesmerrill/police-investigations-api/models"
)

const officerName = "police_officers"

// OfficerDatabase contains the methods to use with the officer profile database
type OfficerDatabase interface {
	InsertOne(ctx context.Context, officer models.Officer) error
	FindByID(ctx context.Context, id string) (*models.Officer, error)
	UpdateOne(ctx context.Context, officer models.Officer) error
}

type officerDatabase struct {
	db DatabaseHelper
}

// NewOfficerDatabase initializes a new instance of officer database with the provided db connection
func NewOfficerDatabase(db DatabaseHelper) OfficerDatabase {
	return &officerDatabase{
		db: db,
	}
}

func (o *officerDatabase) InsertOne(ctx context.Context, officer models.Officer) error {
	_, err := o.db.Collection(officerName).InsertOne(ctx, officer)
	return translate(err)
}

func (o *officerDatabase) FindByID(ctx context.Context, id string) (*models.Officer, error) {
	officer := &models.Officer{}
	err := o.db.Collection(officerName).FindOne(ctx, bson.M{"_id": id}).Decode(&officer)
	if err != nil {
		return nil, translate(err)
	}
	return officer, nil
}

// UpdateOne writes the mutable profile fields, the email stays as registered
func (o *officerDatabase) UpdateOne(ctx context.Context, officer models.Officer) error {
	update := bson.M{"$set": bson.M{
		"rg":         officer.RG,
		"rank":       officer.Rank,
		"qra":        officer.QRA,
		"updated_at": officer.UpdatedAt,
	}}
	res, err := o.db.Collection(officerName).UpdateOne(ctx, bson.M{"_id": officer.ID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
