package databases

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/linesmerrill/police-investigations-api/models"
)

// OpenRelational connects gorm to postgres or sqlite and migrates the schema
func OpenRelational(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported relational driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&credentialRow{},
		&officerRow{},
		&investigationRow{},
		&timelineEntryRow{},
		&evidenceImageRow{},
		&locationImageRow{},
	)
	if err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

type credentialRow struct {
	ID           string `gorm:"primaryKey;size:36"`
	Email        string `gorm:"uniqueIndex;size:320"`
	PasswordHash string
	CreatedAt    time.Time `gorm:"index"`
	UpdatedAt    time.Time
}

func (credentialRow) TableName() string { return credentialName }

type officerRow struct {
	ID        string `gorm:"primaryKey;size:36"`
	RG        string
	Rank      string
	QRA       string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (officerRow) TableName() string { return officerName }

type investigationRow struct {
	ID              string `gorm:"primaryKey;size:36"`
	OfficerID       string `gorm:"index;size:36"`
	Title           string
	Status          string
	Priority        string
	DateCreated     time.Time `gorm:"index"`
	DateResolved    *time.Time
	Location        string
	VideoURL        string
	TimelineEntries []timelineEntryRow `gorm:"foreignKey:InvestigationID;constraint:OnDelete:CASCADE"`
	EvidenceImages  []evidenceImageRow `gorm:"foreignKey:InvestigationID;constraint:OnDelete:CASCADE"`
	LocationImages  []locationImageRow `gorm:"foreignKey:InvestigationID;constraint:OnDelete:CASCADE"`
}

func (investigationRow) TableName() string { return investigationName }

type timelineEntryRow struct {
	ID              uint   `gorm:"primaryKey"`
	InvestigationID string `gorm:"index;size:36"`
	Position        int
	Time            string
	Description     string
}

func (timelineEntryRow) TableName() string { return "timeline_entries" }

type evidenceImageRow struct {
	ID              uint   `gorm:"primaryKey"`
	InvestigationID string `gorm:"index;size:36"`
	Position        int
	URL             string
}

func (evidenceImageRow) TableName() string { return "evidence_images" }

type locationImageRow struct {
	ID              uint   `gorm:"primaryKey"`
	InvestigationID string `gorm:"index;size:36"`
	Position        int
	URL             string
}

func (locationImageRow) TableName() string { return "location_images" }

func toInvestigationRow(inv models.Investigation) investigationRow {
	row := investigationRow{
		ID:           inv.ID,
		OfficerID:    inv.OfficerID,
		Title:        inv.Title,
		Status:       string(inv.Status),
		Priority:     string(inv.Priority),
		DateCreated:  inv.DateCreated,
		DateResolved: inv.DateResolved,
		Location:     inv.Location,
		VideoURL:     inv.VideoURL,
	}
	row.TimelineEntries, row.EvidenceImages, row.LocationImages = childRows(inv)
	return row
}

func childRows(inv models.Investigation) ([]timelineEntryRow, []evidenceImageRow, []locationImageRow) {
	timeline := make([]timelineEntryRow, 0, len(inv.TimelineEntries))
	for i, e := range inv.TimelineEntries {
		timeline = append(timeline, timelineEntryRow{InvestigationID: inv.ID, Position: i, Time: e.Time, Description: e.Description})
	}
	evidence := make([]evidenceImageRow, 0, len(inv.EvidenceImages))
	for i, img := range inv.EvidenceImages {
		evidence = append(evidence, evidenceImageRow{InvestigationID: inv.ID, Position: i, URL: img.URL})
	}
	location := make([]locationImageRow, 0, len(inv.LocationImages))
	for i, img := range inv.LocationImages {
		location = append(location, locationImageRow{InvestigationID: inv.ID, Position: i, URL: img.URL})
	}
	return timeline, evidence, location
}

func (row investigationRow) model() models.Investigation {
	inv := models.Investigation{
		ID:              row.ID,
		OfficerID:       row.OfficerID,
		Title:           row.Title,
		Status:          models.Status(row.Status),
		Priority:        models.Priority(row.Priority),
		DateCreated:     row.DateCreated,
		DateResolved:    row.DateResolved,
		Location:        row.Location,
		VideoURL:        row.VideoURL,
		TimelineEntries: make([]models.TimelineEntry, 0, len(row.TimelineEntries)),
		EvidenceImages:  make([]models.Image, 0, len(row.EvidenceImages)),
		LocationImages:  make([]models.Image, 0, len(row.LocationImages)),
	}
	for _, e := range row.TimelineEntries {
		inv.TimelineEntries = append(inv.TimelineEntries, models.TimelineEntry{Time: e.Time, Description: e.Description})
	}
	for _, img := range row.EvidenceImages {
		inv.EvidenceImages = append(inv.EvidenceImages, models.Image{URL: img.URL})
	}
	for _, img := range row.LocationImages {
		inv.LocationImages = append(inv.LocationImages, models.Image{URL: img.URL})
	}
	return inv
}

// RelationalStores groups the gorm backed stores sharing one connection
type RelationalStores struct {
	Investigations InvestigationDatabase
	Officers       OfficerDatabase
	Credentials    CredentialDatabase
}

// NewRelationalStores builds every relational store on top of db
func NewRelationalStores(db *gorm.DB) RelationalStores {
	return RelationalStores{
		Investigations: NewRelationalInvestigationDatabase(db),
		Officers:       NewRelationalOfficerDatabase(db),
		Credentials:    NewRelationalCredentialDatabase(db),
	}
}
