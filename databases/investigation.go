package databases

// go generate: mockery --name InvestigationDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/police-investigations-api/models"
)

const investigationName = "investigations"

// InvestigationDatabase contains the methods to use with the investigation database
type InvestigationDatabase interface {
	InsertOne(ctx context.Context, investigation *models.Investigation) error
	FindByID(ctx context.Context, id string) (*models.Investigation, error)
	FindByOfficer(ctx context.Context, officerID string, limit, page int) ([]models.Investigation, error)
	ReplaceOne(ctx context.Context, investigation models.Investigation) error
}

type investigationDatabase struct {
	db DatabaseHelper
}

// NewInvestigationDatabase initializes a new instance of investigation database with the provided db connection
func NewInvestigationDatabase(db DatabaseHelper) InvestigationDatabase {
	return &investigationDatabase{
		db: db,
	}
}

// InsertOne stores the investigation, assigning an ObjectID hex when the id is empty
func (i *investigationDatabase) InsertOne(ctx context.Context, investigation *models.Investigation) error {
	if investigation.ID == "" {
		investigation.ID = primitive.NewObjectID().Hex()
	}
	_, err := i.db.Collection(investigationName).InsertOne(ctx, investigation)
	return translate(err)
}

func (i *investigationDatabase) FindByID(ctx context.Context, id string) (*models.Investigation, error) {
	investigation := &models.Investigation{}
	err := i.db.Collection(investigationName).FindOne(ctx, bson.M{"_id": id}).Decode(&investigation)
	if err != nil {
		return nil, translate(err)
	}
	return investigation, nil
}

func (i *investigationDatabase) FindByOfficer(ctx context.Context, officerID string, limit, page int) ([]models.Investigation, error) {
	var investigations []models.Investigation
	opts := newMongoPaginate(limit, page).getPaginatedOpts("dateCreated")
	cr, err := i.db.Collection(investigationName).Find(ctx, bson.M{"officerId": officerID}, opts)
	if err != nil {
		return nil, err
	}
	err = cr.Decode(&investigations)
	if err != nil {
		return nil, err
	}
	return investigations, nil
}

// ReplaceOne swaps the stored document, children included, for the given one
func (i *investigationDatabase) ReplaceOne(ctx context.Context, investigation models.Investigation) error {
	res, err := i.db.Collection(investigationName).ReplaceOne(ctx, bson.M{"_id": investigation.ID}, investigation)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
