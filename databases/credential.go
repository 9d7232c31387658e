package databases

// go generate: mockery --name CredentialDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/linesmerrill/police-investigations-api/models"
)

const credentialName = "credentials"

// CredentialDatabase contains the methods to use with the credential database
type CredentialDatabase interface {
	InsertOne(ctx context.Context, credential models.Credential) error
	FindByEmail(ctx context.Context, email string) (*models.Credential, error)
	FindByID(ctx context.Context, id string) (*models.Credential, error)
	FindCreatedBefore(ctx context.Context, cutoff time.Time) ([]models.Credential, error)
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
	DeleteOne(ctx context.Context, id string) error
}

type credentialDatabase struct {
	db DatabaseHelper
}

// NewCredentialDatabase initializes a new instance of credential database with the provided db connection
func NewCredentialDatabase(db DatabaseHelper) CredentialDatabase {
	return &credentialDatabase{
		db: db,
	}
}

func (c *credentialDatabase) InsertOne(ctx context.Context, credential models.Credential) error {
	_, err := c.db.Collection(credentialName).InsertOne(ctx, credential)
	return translate(err)
}

func (c *credentialDatabase) FindByEmail(ctx context.Context, email string) (*models.Credential, error) {
	return c.findOne(ctx, bson.M{"email": email})
}

func (c *credentialDatabase) FindByID(ctx context.Context, id string) (*models.Credential, error) {
	return c.findOne(ctx, bson.M{"_id": id})
}

func (c *credentialDatabase) findOne(ctx context.Context, filter interface{}) (*models.Credential, error) {
	credential := &models.Credential{}
	err := c.db.Collection(credentialName).FindOne(ctx, filter).Decode(&credential)
	if err != nil {
		return nil, translate(err)
	}
	return credential, nil
}

func (c *credentialDatabase) FindCreatedBefore(ctx context.Context, cutoff time.Time) ([]models.Credential, error) {
	var credentials []models.Credential
	cr, err := c.db.Collection(credentialName).Find(ctx, bson.M{"createdAt": bson.M{"$lt": cutoff}})
	if err != nil {
		return nil, err
	}
	if err = cr.Decode(&credentials); err != nil {
		return nil, err
	}
	return credentials, nil
}

func (c *credentialDatabase) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	update := bson.M{"$set": bson.M{"passwordHash": passwordHash, "updatedAt": updatedAt}}
	res, err := c.db.Collection(credentialName).UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *credentialDatabase) DeleteOne(ctx context.Context, id string) error {
	res, err := c.db.Collection(credentialName).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
