package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/police-investigations-api/api"
	"github.com/linesmerrill/police-investigations-api/api/handlers"
	"github.com/linesmerrill/police-investigations-api/databases"
	mocksdb "github.com/linesmerrill/police-investigations-api/databases/mocks"
	"github.com/linesmerrill/police-investigations-api/investigation"
	"github.com/linesmerrill/police-investigations-api/models"
	"github.com/linesmerrill/police-investigations-api/session"
	"github.com/linesmerrill/police-investigations-api/uploads"
)

var officerSession = &session.Session{Token: "abc123", UserID: "officer-1", Email: testEmail}

// authed attaches the session the gate would have put on the request
func authed(req *http.Request, vars map[string]string) *http.Request {
	req = req.WithContext(session.NewContext(req.Context(), officerSession))
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	return req
}

type fakeUploader struct {
	folder string
	body   string
	url    string
	err    error
}

func (f *fakeUploader) Upload(_ context.Context, file io.Reader, folder string) (string, error) {
	b, _ := io.ReadAll(file)
	f.body = string(b)
	f.folder = folder
	return f.url, f.err
}

type fakeSigner struct{}

func (fakeSigner) Signature(folder string) (string, string, error) {
	return "1700000000", "sig-" + folder, nil
}

type failingSigner struct{}

func (failingSigner) Signature(string) (string, string, error) {
	return "", "", errors.New("sign upload: mocked-error")
}

func multipartImage(t *testing.T, kind string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if kind != "" {
		require.NoError(t, mw.WriteField("kind", kind))
	}
	fw, err := mw.CreateFormFile("image", "cena.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestInvestigation_InvestigationsHandlerStoreError(t *testing.T) {
	store := &mocksdb.InvestigationDatabase{}
	store.On("FindByOfficer", mock.Anything, "officer-1", 10, 2).Return(nil, errors.New("mocked-error"))

	h := handlers.Investigation{Manager: investigation.NewManager(store)}
	req := authed(httptest.NewRequest("GET", "/api/v1/investigations?limit=10&page=2", nil), nil)
	rr := httptest.NewRecorder()
	http.HandlerFunc(h.InvestigationsHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, `{"response": "failed to get investigations, list investigations: mocked-error"}`, rr.Body.String())
	store.AssertExpectations(t)
}

func TestInvestigation_InvestigationsHandlerIgnoresBadPaging(t *testing.T) {
	store := &mocksdb.InvestigationDatabase{}
	store.On("FindByOfficer", mock.Anything, "officer-1", 0, 0).Return(nil, nil)

	h := handlers.Investigation{Manager: investigation.NewManager(store)}
	req := authed(httptest.NewRequest("GET", "/api/v1/investigations?limit=abc&page=-1", nil), nil)
	rr := httptest.NewRecorder()
	http.HandlerFunc(h.InvestigationsHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `[]`, rr.Body.String())
}

func TestInvestigation_InvestigationByIDHandler(t *testing.T) {
	store := &mocksdb.InvestigationDatabase{}
	store.On("FindByID", mock.Anything, "missing").Return(nil, databases.ErrNotFound)
	store.On("FindByID", mock.Anything, "broken").Return(nil, errors.New("mocked-error"))
	store.On("FindByID", mock.Anything, "inv-1").Return(&models.Investigation{ID: "inv-1", OfficerID: "officer-1", Title: "Furto"}, nil)

	h := handlers.Investigation{Manager: investigation.NewManager(store)}
	tests := []struct {
		id       string
		wantCode int
	}{
		{"missing", http.StatusNotFound},
		{"broken", http.StatusInternalServerError},
		{"inv-1", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			req := authed(httptest.NewRequest("GET", "/api/v1/investigations/"+tt.id, nil), map[string]string{"investigation_id": tt.id})
			rr := httptest.NewRecorder()
			http.HandlerFunc(h.InvestigationByIDHandler).ServeHTTP(rr, req)
			assert.Equal(t, tt.wantCode, rr.Code, rr.Body.String())
		})
	}
}

func TestInvestigation_CreateInvestigationHandlerValidation(t *testing.T) {
	h := handlers.Investigation{Manager: investigation.NewManager(&mocksdb.InvestigationDatabase{})}
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad json", `{`, `failed to decode request`},
		{"missing title", `{"title":"   "}`, `invalid investigation, title is required`},
		{"bad priority", `{"title":"x","priority":"urgent"}`, `invalid investigation, priority must be high, medium or low`},
		{"bad status", `{"title":"x","status":"closed"}`, `invalid investigation, status must be active or resolved`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := authed(httptest.NewRequest("POST", "/api/v1/investigations", strings.NewReader(tt.body)), nil)
			rr := httptest.NewRecorder()
			http.HandlerFunc(h.CreateInvestigationHandler).ServeHTTP(rr, req)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.want)
		})
	}
}

func TestInvestigation_CreateInvestigationHandlerStoreError(t *testing.T) {
	store := &mocksdb.InvestigationDatabase{}
	store.On("InsertOne", mock.Anything, mock.AnythingOfType("*models.Investigation")).Return(errors.New("mocked-error"))

	h := handlers.Investigation{Manager: investigation.NewManager(store)}
	req := authed(httptest.NewRequest("POST", "/api/v1/investigations", strings.NewReader(`{"title":"Furto"}`)), nil)
	rr := httptest.NewRecorder()
	http.HandlerFunc(h.CreateInvestigationHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, `{"response": "failed to create investigation, store investigation: mocked-error"}`, rr.Body.String())
}

func TestInvestigation_UpdateInvestigationHandlerReplaceNotFound(t *testing.T) {
	store := &mocksdb.InvestigationDatabase{}
	store.On("FindByID", mock.Anything, "inv-1").Return(&models.Investigation{ID: "inv-1", OfficerID: "officer-1", Status: models.StatusActive}, nil)
	store.On("ReplaceOne", mock.Anything, mock.AnythingOfType("models.Investigation")).Return(databases.ErrNotFound)

	h := handlers.Investigation{Manager: investigation.NewManager(store)}
	req := authed(httptest.NewRequest("PUT", "/api/v1/investigations/inv-1", strings.NewReader(`{"title":"Furto"}`)), map[string]string{"investigation_id": "inv-1"})
	rr := httptest.NewRecorder()
	http.HandlerFunc(h.UpdateInvestigationHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, `{"response": "failed to update investigation, investigation not found"}`, rr.Body.String())
}

func TestInvestigation_ExportInvestigationHandlerArchiveFailure(t *testing.T) {
	invs := investigation.NewMemoryStore()
	manager := investigation.NewManager(invs)
	inv, err := manager.Create(context.Background(), "officer-1", investigation.Input{Title: "Furto/Roubo"})
	require.NoError(t, err)

	metrics := api.NewMetrics()
	h := handlers.Investigation{
		Manager:  manager,
		Archiver: &fakeArchiver{err: errors.New("s3 down")},
		Metrics:  metrics,
	}
	req := authed(httptest.NewRequest("GET", "/api/v1/investigations/"+inv.ID+"/export", nil), map[string]string{"investigation_id": inv.ID})
	rr := httptest.NewRecorder()
	http.HandlerFunc(h.ExportInvestigationHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code, "a failed archive copy does not fail the download")
	assert.Equal(t, `attachment; filename=Furto_Roubo.docx`, rr.Header().Get("Content-Disposition"))
	assert.NotEmpty(t, rr.Body.Bytes())
}

func TestInvestigation_UploadInvestigationImageHandler(t *testing.T) {
	invs := investigation.NewMemoryStore()
	manager := investigation.NewManager(invs)
	inv, err := manager.Create(context.Background(), "officer-1", investigation.Input{Title: "Furto"})
	require.NoError(t, err)
	vars := map[string]string{"investigation_id": inv.ID}

	t.Run("not configured", func(t *testing.T) {
		h := handlers.Investigation{Manager: manager}
		body, ct := multipartImage(t, "evidence")
		req := authed(httptest.NewRequest("POST", "/", body), vars)
		req.Header.Set("Content-Type", ct)
		rr := httptest.NewRecorder()
		http.HandlerFunc(h.UploadInvestigationImageHandler).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.Equal(t, `{"response": "failed to upload image, image uploads are not configured"}`, rr.Body.String())
	})

	t.Run("location image", func(t *testing.T) {
		up := &fakeUploader{url: "https://res.cloudinary.com/demo/cena.png"}
		h := handlers.Investigation{Manager: manager, Uploader: up}
		body, ct := multipartImage(t, "location")
		req := authed(httptest.NewRequest("POST", "/", body), vars)
		req.Header.Set("Content-Type", ct)
		rr := httptest.NewRecorder()
		http.HandlerFunc(h.UploadInvestigationImageHandler).ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.Equal(t, uploads.Folder("officer-1", inv.ID, "location"), up.folder)
		assert.Equal(t, "png-bytes", up.body)

		var got models.Investigation
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Equal(t, []string{up.url}, models.ImageURLs(got.LocationImages))
		assert.Empty(t, got.EvidenceImages)
	})

	t.Run("bad kind", func(t *testing.T) {
		h := handlers.Investigation{Manager: manager, Uploader: &fakeUploader{}}
		body, ct := multipartImage(t, "selfie")
		req := authed(httptest.NewRequest("POST", "/", body), vars)
		req.Header.Set("Content-Type", ct)
		rr := httptest.NewRecorder()
		http.HandlerFunc(h.UploadInvestigationImageHandler).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("upload fails", func(t *testing.T) {
		h := handlers.Investigation{Manager: manager, Uploader: &fakeUploader{err: errors.New("upload image: quota")}}
		body, ct := multipartImage(t, "")
		req := authed(httptest.NewRequest("POST", "/", body), vars)
		req.Header.Set("Content-Type", ct)
		rr := httptest.NewRecorder()
		http.HandlerFunc(h.UploadInvestigationImageHandler).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadGateway, rr.Code)
	})
}

func TestInvestigation_UploadSignatureHandler(t *testing.T) {
	invs := investigation.NewMemoryStore()
	manager := investigation.NewManager(invs)
	inv, err := manager.Create(context.Background(), "officer-1", investigation.Input{Title: "Furto"})
	require.NoError(t, err)

	h := handlers.Investigation{Manager: manager, Signer: fakeSigner{}}
	req := authed(httptest.NewRequest("GET", "/?kind=evidence", nil), map[string]string{"investigation_id": inv.ID})
	rr := httptest.NewRecorder()
	http.HandlerFunc(h.UploadSignatureHandler).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	folder := uploads.Folder("officer-1", inv.ID, "evidence")
	assert.JSONEq(t, `{"timestamp":"1700000000","signature":"sig-`+folder+`","folder":"`+folder+`"}`, rr.Body.String())

	h.Signer = failingSigner{}
	rr = httptest.NewRecorder()
	http.HandlerFunc(h.UploadSignatureHandler).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"response": "failed to sign upload, sign upload: mocked-error"}`, rr.Body.String())
}

func TestOfficer_OfficerHandler(t *testing.T) {
	db := &mocksdb.OfficerDatabase{}
	db.On("FindByID", mock.Anything, "officer-1").Return(nil, databases.ErrNotFound).Once()

	o := handlers.Officer{DB: db}
	req := authed(httptest.NewRequest("GET", "/api/v1/officer", nil), nil)
	rr := httptest.NewRecorder()
	http.HandlerFunc(o.OfficerHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, `{"response": "failed to get officer profile, not found"}`, rr.Body.String())
}

func TestOfficer_UpdateOfficerHandler(t *testing.T) {
	a := newTestApp(t)
	sess := a.signIn(t)

	rr := a.do(jsonRequest(t, "PUT", "/api/v1/officer", sess.Token, map[string]string{
		"rg": "98.765.432-1", "rank": "Sargento", "qra": "Bravo 2", "email": "other@pm.gov.br",
	}))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = a.do(jsonRequest(t, "GET", "/api/v1/officer", sess.Token, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var officer models.Officer
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &officer))
	assert.Equal(t, "Sargento", officer.Rank)
	assert.Equal(t, "Bravo 2", officer.QRA)
	assert.Equal(t, "98.765.432-1", officer.RG)
	assert.Equal(t, testEmail, officer.Email, "email is read-only")
}

func TestOfficer_UpdateOfficerHandlerStoreError(t *testing.T) {
	db := &mocksdb.OfficerDatabase{}
	db.On("FindByID", mock.Anything, "officer-1").Return(&models.Officer{ID: "officer-1"}, nil)
	db.On("UpdateOne", mock.Anything, mock.AnythingOfType("models.Officer")).Return(errors.New("mocked-error"))

	o := handlers.Officer{DB: db}
	req := authed(httptest.NewRequest("PUT", "/api/v1/officer", strings.NewReader(`{"rank":"Cabo"}`)), nil)
	rr := httptest.NewRecorder()
	http.HandlerFunc(o.UpdateOfficerHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	db.AssertExpectations(t)
}
