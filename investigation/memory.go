package investigation

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/linesmerrill/police-investigations-api/databases"
	"github.com/linesmerrill/police-investigations-api/models"
)

// MemoryStore is a process local InvestigationDatabase. Ids are creation
// timestamps in nanoseconds, bumped so they stay strictly increasing.
type MemoryStore struct {
	mu     sync.RWMutex
	items  map[string]models.Investigation
	lastID int64
	now    func() time.Time
}

// NewMemoryStore returns an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: map[string]models.Investigation{},
		now:   time.Now,
	}
}

func (s *MemoryStore) InsertOne(_ context.Context, inv *models.Investigation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if inv.ID == "" {
		id := s.now().UnixNano()
		if id <= s.lastID {
			id = s.lastID + 1
		}
		s.lastID = id
		inv.ID = strconv.FormatInt(id, 10)
	}
	if _, ok := s.items[inv.ID]; ok {
		return databases.ErrDuplicate
	}
	s.items[inv.ID] = clone(*inv)
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id string) (*models.Investigation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.items[id]
	if !ok {
		return nil, databases.ErrNotFound
	}
	inv = clone(inv)
	return &inv, nil
}

func (s *MemoryStore) FindByOfficer(_ context.Context, officerID string, limit, page int) ([]models.Investigation, error) {
	s.mu.RLock()
	invs := make([]models.Investigation, 0)
	for _, inv := range s.items {
		if inv.OfficerID == officerID {
			invs = append(invs, clone(inv))
		}
	}
	s.mu.RUnlock()

	sort.Slice(invs, func(i, j int) bool {
		if invs[i].DateCreated.Equal(invs[j].DateCreated) {
			return invs[i].ID > invs[j].ID
		}
		return invs[i].DateCreated.After(invs[j].DateCreated)
	})

	if limit <= 0 {
		return invs, nil
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(invs) {
		return []models.Investigation{}, nil
	}
	end := start + limit
	if end > len(invs) {
		end = len(invs)
	}
	return invs[start:end], nil
}

func (s *MemoryStore) ReplaceOne(_ context.Context, inv models.Investigation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[inv.ID]; !ok {
		return databases.ErrNotFound
	}
	s.items[inv.ID] = clone(inv)
	return nil
}

// clone copies the child slices so callers never share them with the store
func clone(inv models.Investigation) models.Investigation {
	inv.TimelineEntries = append([]models.TimelineEntry{}, inv.TimelineEntries...)
	inv.EvidenceImages = append([]models.Image{}, inv.EvidenceImages...)
	inv.LocationImages = append([]models.Image{}, inv.LocationImages...)
	if inv.DateResolved != nil {
		t := *inv.DateResolved
		inv.DateResolved = &t
	}
	return inv
}
