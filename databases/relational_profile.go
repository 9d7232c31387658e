package databases

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/linesmerrill/police-investigations-api/models"
)

type relationalOfficerDatabase struct {
	db *gorm.DB
}

// NewRelationalOfficerDatabase backs the officer profile store with gorm
func NewRelationalOfficerDatabase(db *gorm.DB) OfficerDatabase {
	return &relationalOfficerDatabase{db: db}
}

func (r *relationalOfficerDatabase) InsertOne(ctx context.Context, officer models.Officer) error {
	row := officerRow(officer)
	return translate(r.db.WithContext(ctx).Create(&row).Error)
}

func (r *relationalOfficerDatabase) FindByID(ctx context.Context, id string) (*models.Officer, error) {
	var row officerRow
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	officer := models.Officer(row)
	return &officer, nil
}

func (r *relationalOfficerDatabase) UpdateOne(ctx context.Context, officer models.Officer) error {
	res := r.db.WithContext(ctx).Model(&officerRow{}).Where("id = ?", officer.ID).Updates(map[string]interface{}{
		"rg":         officer.RG,
		"rank":       officer.Rank,
		"qra":        officer.QRA,
		"updated_at": officer.UpdatedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type relationalCredentialDatabase struct {
	db *gorm.DB
}

// NewRelationalCredentialDatabase backs the credential store with gorm
func NewRelationalCredentialDatabase(db *gorm.DB) CredentialDatabase {
	return &relationalCredentialDatabase{db: db}
}

func (r *relationalCredentialDatabase) InsertOne(ctx context.Context, credential models.Credential) error {
	if credential.ID == "" {
		credential.ID = uuid.NewString()
	}
	row := credentialRow(credential)
	return translate(r.db.WithContext(ctx).Create(&row).Error)
}

func (r *relationalCredentialDatabase) FindByEmail(ctx context.Context, email string) (*models.Credential, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *relationalCredentialDatabase) FindByID(ctx context.Context, id string) (*models.Credential, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *relationalCredentialDatabase) findOne(ctx context.Context, query string, arg string) (*models.Credential, error) {
	var row credentialRow
	if err := r.db.WithContext(ctx).First(&row, query, arg).Error; err != nil {
		return nil, translate(err)
	}
	credential := models.Credential(row)
	return &credential, nil
}

func (r *relationalCredentialDatabase) FindCreatedBefore(ctx context.Context, cutoff time.Time) ([]models.Credential, error) {
	var rows []credentialRow
	if err := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Find(&rows).Error; err != nil {
		return nil, err
	}
	credentials := make([]models.Credential, 0, len(rows))
	for _, row := range rows {
		credentials = append(credentials, models.Credential(row))
	}
	return credentials, nil
}

func (r *relationalCredentialDatabase) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	res := r.db.WithContext(ctx).Model(&credentialRow{}).Where("id = ?", id).Updates(map[string]interface{}{
		"password_hash": passwordHash,
		"updated_at":    updatedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *relationalCredentialDatabase) DeleteOne(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&credentialRow{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
