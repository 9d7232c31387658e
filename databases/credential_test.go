package databases_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linesmerrill/police-investigations-api/databases"
	"github.com/linesmerrill/police-investigations-api/databases/mocks"
	"github.com/linesmerrill/police-investigations-api/models"
)

func TestCredentialDatabase_FindByEmail(t *testing.T) {
	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper
	var srHelperCorrect databases.SingleResultHelper

	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}
	srHelperCorrect = &mocks.SingleResultHelper{}

	srHelperCorrect.(*mocks.SingleResultHelper).
		On("Decode", mock.Anything).
		Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Credential)
		(*arg).ID = "cred-1"
		(*arg).Email = "agente@pm.gov.br"
	})

	collectionHelper.(*mocks.CollectionHelper).
		On("FindOne", context.Background(), bson.M{"email": "agente@pm.gov.br"}).
		Return(srHelperCorrect)

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "credentials").Return(collectionHelper)

	credentialDba := databases.NewCredentialDatabase(dbHelper)

	cred, err := credentialDba.FindByEmail(context.Background(), "agente@pm.gov.br")
	assert.NoError(t, err)
	assert.Equal(t, &models.Credential{ID: "cred-1", Email: "agente@pm.gov.br"}, cred)
}

func TestCredentialDatabase_FindCreatedBefore(t *testing.T) {
	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper
	var cursorHelper databases.CursorHelper

	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}
	cursorHelper = &mocks.CursorHelper{}

	cutoff := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	cursorHelper.(*mocks.CursorHelper).
		On("Decode", mock.Anything).
		Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*[]models.Credential)
		*arg = []models.Credential{{ID: "old"}}
	})

	collectionHelper.(*mocks.CollectionHelper).
		On("Find", context.Background(), bson.M{"createdAt": bson.M{"$lt": cutoff}}).
		Return(cursorHelper, nil)

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "credentials").Return(collectionHelper)

	credentialDba := databases.NewCredentialDatabase(dbHelper)

	creds, err := credentialDba.FindCreatedBefore(context.Background(), cutoff)
	assert.NoError(t, err)
	assert.Equal(t, []models.Credential{{ID: "old"}}, creds)
}

func TestCredentialDatabase_DeleteOne(t *testing.T) {
	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper

	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}

	collectionHelper.(*mocks.CollectionHelper).
		On("DeleteOne", context.Background(), bson.M{"_id": "cred-1"}).
		Return(&mongo.DeleteResult{DeletedCount: 1}, nil)
	collectionHelper.(*mocks.CollectionHelper).
		On("DeleteOne", context.Background(), bson.M{"_id": "ghost"}).
		Return(&mongo.DeleteResult{}, nil)

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "credentials").Return(collectionHelper)

	credentialDba := databases.NewCredentialDatabase(dbHelper)

	assert.NoError(t, credentialDba.DeleteOne(context.Background(), "cred-1"))
	assert.ErrorIs(t, credentialDba.DeleteOne(context.Background(), "ghost"), databases.ErrNotFound)
}

func TestCredentialDatabase_UpdatePassword(t *testing.T) {
	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper

	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}

	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	collectionHelper.(*mocks.CollectionHelper).
		On("UpdateOne", context.Background(), bson.M{"_id": "cred-1"}, bson.M{"$set": bson.M{"passwordHash": "hash", "updatedAt": now}}).
		Return(&mongo.UpdateResult{MatchedCount: 1}, nil)

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "credentials").Return(collectionHelper)

	credentialDba := databases.NewCredentialDatabase(dbHelper)

	assert.NoError(t, credentialDba.UpdatePassword(context.Background(), "cred-1", "hash", now))
}
