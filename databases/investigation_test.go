package databases_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linesmerrill/police-investigations-api/config"
	"github.com/linesmerrill/police-investigations-api/databases"
	"github.com/linesmerrill/police-investigations-api/databases/mocks"
	"github.com/linesmerrill/police-investigations-api/models"
)

func TestNewInvestigationDatabase(t *testing.T) {
	os.Setenv("DB_URI", "mongodb://127.0.0.1:27017")
	os.Setenv("DB_NAME", "test")
	conf := config.New()

	dbClient, err := databases.NewClient(conf)
	assert.NoError(t, err)

	db := databases.NewDatabase(conf, dbClient)

	investigationDB := databases.NewInvestigationDatabase(db)

	assert.NotEmpty(t, investigationDB)
}

func TestInvestigationDatabase_FindByID(t *testing.T) {
	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper
	var srHelperErr databases.SingleResultHelper
	var srHelperMissing databases.SingleResultHelper
	var srHelperCorrect databases.SingleResultHelper

	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}
	srHelperErr = &mocks.SingleResultHelper{}
	srHelperMissing = &mocks.SingleResultHelper{}
	srHelperCorrect = &mocks.SingleResultHelper{}

	srHelperErr.(*mocks.SingleResultHelper).
		On("Decode", mock.Anything).
		Return(errors.New("mocked-error"))

	srHelperMissing.(*mocks.SingleResultHelper).
		On("Decode", mock.Anything).
		Return(mongo.ErrNoDocuments)

	srHelperCorrect.(*mocks.SingleResultHelper).
		On("Decode", mock.Anything).
		Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Investigation)
		(*arg).ID = "inv-1"
		(*arg).Title = "Roubo na Avenida"
	})

	collectionHelper.(*mocks.CollectionHelper).
		On("FindOne", context.Background(), bson.M{"_id": "broken"}).
		Return(srHelperErr)
	collectionHelper.(*mocks.CollectionHelper).
		On("FindOne", context.Background(), bson.M{"_id": "missing"}).
		Return(srHelperMissing)
	collectionHelper.(*mocks.CollectionHelper).
		On("FindOne", context.Background(), bson.M{"_id": "inv-1"}).
		Return(srHelperCorrect)

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "investigations").Return(collectionHelper)

	investigationDba := databases.NewInvestigationDatabase(dbHelper)

	inv, err := investigationDba.FindByID(context.Background(), "broken")
	assert.Nil(t, inv)
	assert.EqualError(t, err, "mocked-error")

	inv, err = investigationDba.FindByID(context.Background(), "missing")
	assert.Nil(t, inv)
	assert.ErrorIs(t, err, databases.ErrNotFound)

	inv, err = investigationDba.FindByID(context.Background(), "inv-1")
	assert.NoError(t, err)
	assert.Equal(t, &models.Investigation{ID: "inv-1", Title: "Roubo na Avenida"}, inv)
}

func TestInvestigationDatabase_FindByOfficer(t *testing.T) {
	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper
	var cursorHelper databases.CursorHelper

	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}
	cursorHelper = &mocks.CursorHelper{}

	cursorHelper.(*mocks.CursorHelper).
		On("Decode", mock.Anything).
		Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*[]models.Investigation)
		*arg = []models.Investigation{{ID: "inv-2"}, {ID: "inv-1"}}
	})

	collectionHelper.(*mocks.CollectionHelper).
		On("Find", context.Background(), bson.M{"officerId": "broken"}, mock.Anything).
		Return(nil, errors.New("mocked-error"))
	collectionHelper.(*mocks.CollectionHelper).
		On("Find", context.Background(), bson.M{"officerId": "officer-1"}, mock.Anything).
		Return(cursorHelper, nil)

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "investigations").Return(collectionHelper)

	investigationDba := databases.NewInvestigationDatabase(dbHelper)

	invs, err := investigationDba.FindByOfficer(context.Background(), "broken", 0, 1)
	assert.Empty(t, invs)
	assert.EqualError(t, err, "mocked-error")

	invs, err = investigationDba.FindByOfficer(context.Background(), "officer-1", 0, 1)
	assert.NoError(t, err)
	assert.Equal(t, []models.Investigation{{ID: "inv-2"}, {ID: "inv-1"}}, invs)
}

func TestInvestigationDatabase_InsertOne(t *testing.T) {
	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper

	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}

	collectionHelper.(*mocks.CollectionHelper).
		On("InsertOne", context.Background(), mock.AnythingOfType("*models.Investigation")).
		Return(&mocks.InsertOneResultHelper{}, nil)

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "investigations").Return(collectionHelper)

	investigationDba := databases.NewInvestigationDatabase(dbHelper)

	inv := &models.Investigation{Title: "Furto", DateCreated: time.Now()}
	err := investigationDba.InsertOne(context.Background(), inv)
	assert.NoError(t, err)
	assert.Len(t, inv.ID, 24)

	kept := &models.Investigation{ID: "given-id"}
	err = investigationDba.InsertOne(context.Background(), kept)
	assert.NoError(t, err)
	assert.Equal(t, "given-id", kept.ID)
}

func TestInvestigationDatabase_ReplaceOne(t *testing.T) {
	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper

	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}

	missing := models.Investigation{ID: "missing"}
	found := models.Investigation{ID: "inv-1", Status: models.StatusResolved}

	collectionHelper.(*mocks.CollectionHelper).
		On("ReplaceOne", context.Background(), bson.M{"_id": "missing"}, missing).
		Return(&mongo.UpdateResult{MatchedCount: 0}, nil)
	collectionHelper.(*mocks.CollectionHelper).
		On("ReplaceOne", context.Background(), bson.M{"_id": "inv-1"}, found).
		Return(&mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil)

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "investigations").Return(collectionHelper)

	investigationDba := databases.NewInvestigationDatabase(dbHelper)

	assert.ErrorIs(t, investigationDba.ReplaceOne(context.Background(), missing), databases.ErrNotFound)
	assert.NoError(t, investigationDba.ReplaceOne(context.Background(), found))
}
