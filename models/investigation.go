package models

import "time"

// Status is the lifecycle state of an investigation
type Status string

// Priority ranks how urgently an investigation should be worked
type Priority string

const (
	// StatusActive is set on every new investigation
	StatusActive Status = "active"
	// StatusResolved marks a closed case, dateResolved is set alongside it
	StatusResolved Status = "resolved"

	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Valid reports whether s is one of the known statuses
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusResolved
}

// Valid reports whether p is one of the known priorities
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Investigation holds the structure for the investigations collection. The
// timeline and both image lists are owned by the investigation and live and
// die with it.
type Investigation struct {
	ID              string          `json:"id" bson:"_id"`
	OfficerID       string          `json:"officerId" bson:"officerId"`
	Title           string          `json:"title" bson:"title"`
	Status          Status          `json:"status" bson:"status"`
	Priority        Priority        `json:"priority" bson:"priority"`
	DateCreated     time.Time       `json:"dateCreated" bson:"dateCreated"`
	DateResolved    *time.Time      `json:"dateResolved,omitempty" bson:"dateResolved,omitempty"`
	Location        string          `json:"location,omitempty" bson:"location,omitempty"`
	VideoURL        string          `json:"videoUrl,omitempty" bson:"videoUrl,omitempty"`
	TimelineEntries []TimelineEntry `json:"timelineEntries" bson:"timelineEntries"`
	EvidenceImages  []Image         `json:"evidenceImages" bson:"evidenceImages"`
	LocationImages  []Image         `json:"locationImages" bson:"locationImages"`
}

// TimelineEntry is a timestamped note on an investigation
type TimelineEntry struct {
	Time        string `json:"time" bson:"time"`
	Description string `json:"description" bson:"description"`
}

// Image points at an uploaded evidence or location picture
type Image struct {
	URL string `json:"url" bson:"url"`
}

// ImageURLs flattens a list of images into their urls
func ImageURLs(images []Image) []string {
	urls := make([]string, 0, len(images))
	for _, img := range images {
		urls = append(urls, img.URL)
	}
	return urls
}
