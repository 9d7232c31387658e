package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/linesmerrill/police-investigations-api/api"
	"github.com/linesmerrill/police-investigations-api/config"
	"github.com/linesmerrill/police-investigations-api/export"
	"github.com/linesmerrill/police-investigations-api/investigation"
	"github.com/linesmerrill/police-investigations-api/models"
	"github.com/linesmerrill/police-investigations-api/session"
	"github.com/linesmerrill/police-investigations-api/uploads"
)

// maxImageSize bounds a single multipart image upload
const maxImageSize = 10 << 20

var (
	errTitleRequired     = errors.New("title is required")
	errInvalidPriority   = errors.New("priority must be high, medium or low")
	errInvalidStatus     = errors.New("status must be active or resolved")
	errInvalidImageKind  = errors.New("kind must be evidence or location")
	errNothingSelected   = errors.New("no investigation selected")
	errNotFound          = errors.New("investigation not found")
	errMissingImageField = errors.New("image field is required")
)

// Investigation exported for testing purposes
type Investigation struct {
	Manager  *investigation.Manager
	Archiver export.Archiver
	Metrics  *api.Metrics
	Uploader uploads.Uploader
	Signer   uploads.Signer
}

// CreateInvestigationHandler stores a new active investigation and selects it
func (i Investigation) CreateInvestigationHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		config.ErrorStatus("failed to get session", http.StatusUnauthorized, w, session.ErrInvalidToken)
		return
	}
	in, err := decodeInput(r)
	if err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}
	if err := validateInput(in); err != nil {
		config.ErrorStatus("invalid investigation", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	inv, err := i.Manager.Create(ctx, sess.UserID, in)
	if err != nil {
		config.ErrorStatus("failed to create investigation", http.StatusInternalServerError, w, err)
		return
	}
	zap.S().Infow("investigation created", "investigationId", inv.ID, "officerId", sess.UserID)
	writeJSON(w, http.StatusCreated, inv)
}

// InvestigationsHandler lists the caller's investigations, newest first.
// limit and page are optional; without a limit everything is returned.
func (i Investigation) InvestigationsHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		config.ErrorStatus("failed to get session", http.StatusUnauthorized, w, session.ErrInvalidToken)
		return
	}
	limit := queryInt(r, "limit")
	page := queryInt(r, "page")

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	invs, err := i.Manager.List(ctx, sess.UserID, limit, page)
	if err != nil {
		config.ErrorStatus("failed to get investigations", http.StatusInternalServerError, w, err)
		return
	}
	writeJSON(w, http.StatusOK, invs)
}

// SelectedInvestigationHandler returns the caller's active selection
func (i Investigation) SelectedInvestigationHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		config.ErrorStatus("failed to get session", http.StatusUnauthorized, w, session.ErrInvalidToken)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	inv, err := i.Manager.Selected(ctx, sess.UserID)
	if err != nil {
		config.ErrorStatus("failed to get selected investigation", http.StatusInternalServerError, w, err)
		return
	}
	if inv == nil {
		config.ErrorStatus("failed to get selected investigation", http.StatusNotFound, w, errNothingSelected)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// InvestigationByIDHandler returns one of the caller's investigations
func (i Investigation) InvestigationByIDHandler(w http.ResponseWriter, r *http.Request) {
	inv, ok := i.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// UpdateInvestigationHandler replaces the mutable fields of an investigation
func (i Investigation) UpdateInvestigationHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		config.ErrorStatus("failed to get session", http.StatusUnauthorized, w, session.ErrInvalidToken)
		return
	}
	id := mux.Vars(r)["investigation_id"]

	in, err := decodeInput(r)
	if err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}
	if err := validateInput(in); err != nil {
		config.ErrorStatus("invalid investigation", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	inv, err := i.Manager.Update(ctx, sess.UserID, id, in)
	if err != nil {
		config.ErrorStatus("failed to update investigation", http.StatusInternalServerError, w, err)
		return
	}
	if inv == nil {
		config.ErrorStatus("failed to update investigation", http.StatusNotFound, w, errNotFound)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// SelectInvestigationHandler makes an investigation the caller's active one
func (i Investigation) SelectInvestigationHandler(w http.ResponseWriter, r *http.Request) {
	inv, ok := i.load(w, r)
	if !ok {
		return
	}
	i.Manager.Select(inv.OfficerID, inv.ID)
	writeJSON(w, http.StatusOK, inv)
}

// ExportInvestigationHandler downloads the investigation as a .docx file.
// A copy goes to the archive; failing to archive does not fail the download.
func (i Investigation) ExportInvestigationHandler(w http.ResponseWriter, r *http.Request) {
	inv, ok := i.load(w, r)
	if !ok {
		return
	}

	body, filename, err := export.Export(*inv)
	if err != nil {
		i.Metrics.ObserveExport("failed")
		config.ErrorStatus("failed to export investigation", http.StatusInternalServerError, w, err)
		return
	}

	result := "ok"
	if i.Archiver != nil {
		ctx, cancel := api.WithDetachedTimeout(r.Context())
		if err := i.Archiver.Archive(ctx, *inv, filename, body); err != nil {
			zap.S().Warnw("failed to archive export", "investigationId", inv.ID, "error", err)
			result = "archive_failed"
		}
		cancel()
	}
	i.Metrics.ObserveExport(result)

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// UploadInvestigationImageHandler stores a multipart "image" on Cloudinary
// and attaches its url to the evidence or location list named by "kind"
func (i Investigation) UploadInvestigationImageHandler(w http.ResponseWriter, r *http.Request) {
	if i.Uploader == nil {
		config.ErrorStatus("failed to upload image", http.StatusServiceUnavailable, w, uploads.ErrNotConfigured)
		return
	}
	inv, ok := i.load(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageSize+1<<20)
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		config.ErrorStatus("failed to parse upload", http.StatusBadRequest, w, err)
		return
	}
	kind := investigation.ImageKind(r.FormValue("kind"))
	if kind == "" {
		kind = investigation.EvidenceImage
	}
	if kind != investigation.EvidenceImage && kind != investigation.LocationImage {
		config.ErrorStatus("failed to upload image", http.StatusBadRequest, w, errInvalidImageKind)
		return
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		config.ErrorStatus("failed to upload image", http.StatusBadRequest, w, fmt.Errorf("%w: %v", errMissingImageField, err))
		return
	}
	defer file.Close()

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	url, err := i.Uploader.Upload(ctx, file, uploads.Folder(inv.OfficerID, inv.ID, string(kind)))
	if err != nil {
		config.ErrorStatus("failed to upload image", http.StatusBadGateway, w, err)
		return
	}
	updated, err := i.Manager.AttachImage(ctx, inv.OfficerID, inv.ID, kind, url)
	if err != nil {
		config.ErrorStatus("failed to attach image", http.StatusInternalServerError, w, err)
		return
	}
	if updated == nil {
		config.ErrorStatus("failed to attach image", http.StatusNotFound, w, errNotFound)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// uploadSignature is what the browser needs for a direct signed upload
type uploadSignature struct {
	Timestamp string `json:"timestamp"`
	Signature string `json:"signature"`
	Folder    string `json:"folder"`
}

// UploadSignatureHandler signs a direct browser upload into the folder of
// one of the caller's investigations
func (i Investigation) UploadSignatureHandler(w http.ResponseWriter, r *http.Request) {
	if i.Signer == nil {
		config.ErrorStatus("failed to sign upload", http.StatusServiceUnavailable, w, uploads.ErrNotConfigured)
		return
	}
	inv, ok := i.load(w, r)
	if !ok {
		return
	}
	kind := investigation.ImageKind(r.URL.Query().Get("kind"))
	if kind == "" {
		kind = investigation.EvidenceImage
	}
	if kind != investigation.EvidenceImage && kind != investigation.LocationImage {
		config.ErrorStatus("failed to sign upload", http.StatusBadRequest, w, errInvalidImageKind)
		return
	}

	folder := uploads.Folder(inv.OfficerID, inv.ID, string(kind))
	timestamp, signature, err := i.Signer.Signature(folder)
	if err != nil {
		config.ErrorStatus("failed to sign upload", http.StatusInternalServerError, w, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadSignature{Timestamp: timestamp, Signature: signature, Folder: folder})
}

// load resolves the {investigation_id} route variable for the caller,
// answering 404 when it does not exist or is not theirs
func (i Investigation) load(w http.ResponseWriter, r *http.Request) (*models.Investigation, bool) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		config.ErrorStatus("failed to get session", http.StatusUnauthorized, w, session.ErrInvalidToken)
		return nil, false
	}
	id := mux.Vars(r)["investigation_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	inv, err := i.Manager.Get(ctx, sess.UserID, id)
	if err != nil {
		config.ErrorStatus("failed to get investigation", http.StatusInternalServerError, w, err)
		return nil, false
	}
	if inv == nil {
		config.ErrorStatus("failed to get investigation", http.StatusNotFound, w, errNotFound)
		return nil, false
	}
	return inv, true
}

func decodeInput(r *http.Request) (investigation.Input, error) {
	var in investigation.Input
	err := json.NewDecoder(r.Body).Decode(&in)
	return in, err
}

func validateInput(in investigation.Input) error {
	if strings.TrimSpace(in.Title) == "" {
		return errTitleRequired
	}
	if in.Priority != "" && !in.Priority.Valid() {
		return errInvalidPriority
	}
	if in.Status != "" && !in.Status.Valid() {
		return errInvalidStatus
	}
	return nil
}

// queryInt reads a non-negative integer query parameter, 0 when missing or
// malformed
func queryInt(r *http.Request, key string) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		zap.S().Warnw("ignoring query parameter", "key", key, "value", raw)
		return 0
	}
	return n
}
