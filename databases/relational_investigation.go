package databases

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/linesmerrill/police-investigations-api/models"
)

type relationalInvestigationDatabase struct {
	db *gorm.DB
}

// NewRelationalInvestigationDatabase backs the investigation store with gorm,
// the child collections live in their own tables ordered by position
func NewRelationalInvestigationDatabase(db *gorm.DB) InvestigationDatabase {
	return &relationalInvestigationDatabase{db: db}
}

func (r *relationalInvestigationDatabase) InsertOne(ctx context.Context, investigation *models.Investigation) error {
	if investigation.ID == "" {
		investigation.ID = uuid.NewString()
	}
	row := toInvestigationRow(*investigation)
	return translate(r.db.WithContext(ctx).Create(&row).Error)
}

func (r *relationalInvestigationDatabase) FindByID(ctx context.Context, id string) (*models.Investigation, error) {
	var row investigationRow
	err := r.withChildren(r.db.WithContext(ctx)).First(&row, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	inv := row.model()
	return &inv, nil
}

func (r *relationalInvestigationDatabase) FindByOfficer(ctx context.Context, officerID string, limit, page int) ([]models.Investigation, error) {
	var rows []investigationRow
	q := r.withChildren(r.db.WithContext(ctx)).
		Where("officer_id = ?", officerID).
		Order("date_created desc")
	if limit > 0 {
		q = q.Limit(limit).Offset(newMongoPaginate(limit, page).offset())
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	investigations := make([]models.Investigation, 0, len(rows))
	for _, row := range rows {
		investigations = append(investigations, row.model())
	}
	return investigations, nil
}

// ReplaceOne rewrites the parent columns and recreates the child rows in one transaction
func (r *relationalInvestigationDatabase) ReplaceOne(ctx context.Context, investigation models.Investigation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing investigationRow
		if err := tx.Select("id").First(&existing, "id = ?", investigation.ID).Error; err != nil {
			return translate(err)
		}

		err := tx.Model(&investigationRow{}).Where("id = ?", investigation.ID).Updates(map[string]interface{}{
			"officer_id":    investigation.OfficerID,
			"title":         investigation.Title,
			"status":        string(investigation.Status),
			"priority":      string(investigation.Priority),
			"date_created":  investigation.DateCreated,
			"date_resolved": investigation.DateResolved,
			"location":      investigation.Location,
			"video_url":     investigation.VideoURL,
		}).Error
		if err != nil {
			return err
		}

		for _, child := range []interface{}{&timelineEntryRow{}, &evidenceImageRow{}, &locationImageRow{}} {
			if err := tx.Where("investigation_id = ?", investigation.ID).Delete(child).Error; err != nil {
				return err
			}
		}

		timeline, evidence, location := childRows(investigation)
		if len(timeline) > 0 {
			if err := tx.Create(&timeline).Error; err != nil {
				return err
			}
		}
		if len(evidence) > 0 {
			if err := tx.Create(&evidence).Error; err != nil {
				return err
			}
		}
		if len(location) > 0 {
			if err := tx.Create(&location).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *relationalInvestigationDatabase) withChildren(db *gorm.DB) *gorm.DB {
	byPosition := func(db *gorm.DB) *gorm.DB { return db.Order("position") }
	return db.
		Preload("TimelineEntries", byPosition).
		Preload("EvidenceImages", byPosition).
		Preload("LocationImages", byPosition)
}
