package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/linesmerrill/police-investigations-api/api"
	"github.com/linesmerrill/police-investigations-api/config"
	"github.com/linesmerrill/police-investigations-api/databases"
	"github.com/linesmerrill/police-investigations-api/session"
)

// Officer exported for testing purposes
type Officer struct {
	DB databases.OfficerDatabase
}

// officerUpdate lists the profile fields an officer may change; the email
// belongs to the credential and is read-only here
type officerUpdate struct {
	RG   string `json:"rg"`
	Rank string `json:"rank"`
	QRA  string `json:"qra"`
}

// OfficerHandler returns the caller's profile
func (o Officer) OfficerHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		config.ErrorStatus("failed to get session", http.StatusUnauthorized, w, session.ErrInvalidToken)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	officer, err := o.DB.FindByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, databases.ErrNotFound) {
			config.ErrorStatus("failed to get officer profile", http.StatusNotFound, w, err)
			return
		}
		config.ErrorStatus("failed to get officer profile", http.StatusInternalServerError, w, err)
		return
	}
	writeJSON(w, http.StatusOK, officer)
}

// UpdateOfficerHandler updates rg, rank and qra of the caller's profile
func (o Officer) UpdateOfficerHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		config.ErrorStatus("failed to get session", http.StatusUnauthorized, w, session.ErrInvalidToken)
		return
	}

	var update officerUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	officer, err := o.DB.FindByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, databases.ErrNotFound) {
			config.ErrorStatus("failed to get officer profile", http.StatusNotFound, w, err)
			return
		}
		config.ErrorStatus("failed to get officer profile", http.StatusInternalServerError, w, err)
		return
	}

	officer.RG = update.RG
	officer.Rank = update.Rank
	officer.QRA = update.QRA
	officer.UpdatedAt = time.Now()
	if err := o.DB.UpdateOne(ctx, *officer); err != nil {
		config.ErrorStatus("failed to update officer profile", http.StatusInternalServerError, w, err)
		return
	}
	writeJSON(w, http.StatusOK, officer)
}
