// Package investigation applies the investigation lifecycle over a store:
// create, update, select and read back an officer's cases.
package investigation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/linesmerrill/police-investigations-api/databases"
	"github.com/linesmerrill/police-investigations-api/models"
)

// Input carries the form fields of a create or update. Status is ignored on
// create; an empty Priority on update leaves the stored one alone.
type Input struct {
	Title             string                 `json:"title"`
	Timeline          []models.TimelineEntry `json:"timelineEntries"`
	VideoURL          string                 `json:"videoUrl"`
	ImageURLs         []string               `json:"imageUrls"`
	Priority          models.Priority        `json:"priority"`
	Status            models.Status          `json:"status"`
	Location          string                 `json:"location"`
	LocationImageURLs []string               `json:"locationImageUrls"`
}

// ImageKind selects which image list AttachImage appends to
type ImageKind string

const (
	EvidenceImage ImageKind = "evidence"
	LocationImage ImageKind = "location"
)

// Manager owns the investigation lifecycle and each officer's active selection
type Manager struct {
	store databases.InvestigationDatabase
	now   func() time.Time

	mu       sync.RWMutex
	selected map[string]string

	// writes serializes read-modify-write cycles per investigation id
	writesMu sync.Mutex
	writes   map[string]*recordLock
}

type recordLock struct {
	sync.Mutex
	refs int
}

// NewManager returns a Manager persisting through store
func NewManager(store databases.InvestigationDatabase) *Manager {
	return &Manager{
		store:    store,
		now:      time.Now,
		selected: map[string]string{},
		writes:   map[string]*recordLock{},
	}
}

// lock holds the write lock of investigation id until the returned func runs
func (m *Manager) lock(id string) func() {
	m.writesMu.Lock()
	l, ok := m.writes[id]
	if !ok {
		l = &recordLock{}
		m.writes[id] = l
	}
	l.refs++
	m.writesMu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		m.writesMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.writes, id)
		}
		m.writesMu.Unlock()
	}
}

// Create stores a new active investigation and selects it
func (m *Manager) Create(ctx context.Context, officerID string, in Input) (*models.Investigation, error) {
	priority := in.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	inv := &models.Investigation{
		OfficerID:       officerID,
		Title:           in.Title,
		Status:          models.StatusActive,
		Priority:        priority,
		DateCreated:     m.now(),
		Location:        in.Location,
		VideoURL:        in.VideoURL,
		TimelineEntries: filterTimeline(in.Timeline),
		EvidenceImages:  filterImages(in.ImageURLs),
		LocationImages:  filterImages(in.LocationImageURLs),
	}
	if err := m.store.InsertOne(ctx, inv); err != nil {
		return nil, fmt.Errorf("store investigation: %w", err)
	}
	m.Select(officerID, inv.ID)
	return inv, nil
}

// Update replaces the mutable fields of the officer's investigation id. An
// id that does not exist, or belongs to someone else, is a no-op returning
// nil, nil.
func (m *Manager) Update(ctx context.Context, officerID, id string, in Input) (*models.Investigation, error) {
	defer m.lock(id)()

	inv, err := m.Get(ctx, officerID, id)
	if err != nil || inv == nil {
		return nil, err
	}

	status := in.Status
	if status == "" {
		status = inv.Status
	}
	switch {
	case status != models.StatusResolved:
		inv.DateResolved = nil
	case inv.Status != models.StatusResolved || inv.DateResolved == nil:
		now := m.now()
		inv.DateResolved = &now
	}
	inv.Status = status

	inv.Title = in.Title
	inv.TimelineEntries = filterTimeline(in.Timeline)
	inv.VideoURL = in.VideoURL
	inv.EvidenceImages = filterImages(in.ImageURLs)
	inv.Location = in.Location
	inv.LocationImages = filterImages(in.LocationImageURLs)
	if in.Priority != "" {
		inv.Priority = in.Priority
	}

	if err := m.store.ReplaceOne(ctx, *inv); err != nil {
		if errors.Is(err, databases.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("replace investigation: %w", err)
	}
	return inv, nil
}

// AttachImage appends url to one of the image lists of the investigation.
// Like Update it is a no-op for unknown ids.
func (m *Manager) AttachImage(ctx context.Context, officerID, id string, kind ImageKind, url string) (*models.Investigation, error) {
	defer m.lock(id)()

	inv, err := m.Get(ctx, officerID, id)
	if err != nil || inv == nil || url == "" {
		return inv, err
	}
	switch kind {
	case LocationImage:
		inv.LocationImages = append(inv.LocationImages, models.Image{URL: url})
	default:
		inv.EvidenceImages = append(inv.EvidenceImages, models.Image{URL: url})
	}
	if err := m.store.ReplaceOne(ctx, *inv); err != nil {
		if errors.Is(err, databases.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("replace investigation: %w", err)
	}
	return inv, nil
}

// Select points the officer's active selection at id without checking it
func (m *Manager) Select(officerID, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selected[officerID] = id
}

// Selected resolves the officer's active selection, nil when nothing is
// selected or the selection points nowhere
func (m *Manager) Selected(ctx context.Context, officerID string) (*models.Investigation, error) {
	m.mu.RLock()
	id, ok := m.selected[officerID]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return m.Get(ctx, officerID, id)
}

// Get returns the officer's investigation id, nil when it does not exist
func (m *Manager) Get(ctx context.Context, officerID, id string) (*models.Investigation, error) {
	inv, err := m.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, databases.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find investigation: %w", err)
	}
	if inv == nil || inv.OfficerID != officerID {
		return nil, nil
	}
	return inv, nil
}

// List returns the officer's investigations, newest first
func (m *Manager) List(ctx context.Context, officerID string, limit, page int) ([]models.Investigation, error) {
	invs, err := m.store.FindByOfficer(ctx, officerID, limit, page)
	if err != nil {
		return nil, fmt.Errorf("list investigations: %w", err)
	}
	if invs == nil {
		invs = []models.Investigation{}
	}
	return invs, nil
}

func filterTimeline(entries []models.TimelineEntry) []models.TimelineEntry {
	kept := make([]models.TimelineEntry, 0, len(entries))
	for _, e := range entries {
		if e.Time != "" && e.Description != "" {
			kept = append(kept, e)
		}
	}
	return kept
}

func filterImages(urls []string) []models.Image {
	kept := make([]models.Image, 0, len(urls))
	for _, u := range urls {
		if u != "" {
			kept = append(kept, models.Image{URL: u})
		}
	}
	return kept
}
