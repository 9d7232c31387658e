package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/linesmerrill/police-investigations-api/accounts"
	"github.com/linesmerrill/police-investigations-api/api"
	"github.com/linesmerrill/police-investigations-api/config"
	"github.com/linesmerrill/police-investigations-api/databases"
	"github.com/linesmerrill/police-investigations-api/export"
	"github.com/linesmerrill/police-investigations-api/investigation"
	"github.com/linesmerrill/police-investigations-api/session"
	"github.com/linesmerrill/police-investigations-api/uploads"
)

// memoryDSN backs credentials and profiles when DB_DRIVER is memory
const memoryDSN = "file:police-investigations?mode=memory&cache=shared"

// App stores the router and the services behind it, so they can be reused
// by the http server and the cli commands
type App struct {
	Router *mux.Router
	Config config.Config

	Investigations databases.InvestigationDatabase
	Officers       databases.OfficerDatabase
	Credentials    databases.CredentialDatabase

	Sessions    *session.Store
	Manager     *investigation.Manager
	Provisioner *accounts.Provisioner
	Sweeper     *accounts.Sweeper
	Archiver    export.Archiver
	Metrics     *api.Metrics

	uploader *uploads.Cloudinary
	closers  []func(context.Context) error
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	if a.Metrics == nil {
		a.Metrics = api.NewMetrics()
	}
	r := api.New(a.Metrics, a.Config.RequestTimeout)
	m := api.Authenticator{Provider: a.Sessions}

	auth := Auth{Sessions: a.Sessions, Accounts: a.Provisioner}
	events := Events{Provider: a.Sessions}
	o := Officer{DB: a.Officers}
	inv := Investigation{Manager: a.Manager, Archiver: a.Archiver, Metrics: a.Metrics}
	if a.uploader != nil {
		inv.Uploader = a.uploader
		inv.Signer = a.uploader
	}

	apiCreate := r.PathPrefix("/api/v1").Subrouter()

	apiCreate.Handle("/auth/signup", http.HandlerFunc(auth.SignUpHandler)).Methods("POST")
	apiCreate.Handle("/auth/token", http.HandlerFunc(auth.CreateTokenHandler)).Methods("POST")
	apiCreate.Handle("/auth/refresh", m.Middleware(http.HandlerFunc(auth.RefreshTokenHandler))).Methods("POST")
	apiCreate.Handle("/auth/logout", m.Middleware(http.HandlerFunc(auth.RevokeTokenHandler))).Methods("DELETE")
	apiCreate.Handle("/auth/session", m.Middleware(http.HandlerFunc(auth.SessionHandler))).Methods("GET")
	apiCreate.Handle("/auth/events", http.HandlerFunc(events.SessionEventsHandler)).Methods("GET")
	apiCreate.Handle("/auth/password-reset", http.HandlerFunc(auth.PasswordResetHandler)).Methods("POST")
	apiCreate.Handle("/auth/password-reset/confirm", http.HandlerFunc(auth.PasswordResetConfirmHandler)).Methods("POST")

	apiCreate.Handle("/officer", m.Middleware(http.HandlerFunc(o.OfficerHandler))).Methods("GET")
	apiCreate.Handle("/officer", m.Middleware(http.HandlerFunc(o.UpdateOfficerHandler))).Methods("PUT")

	apiCreate.Handle("/investigations", m.Middleware(http.HandlerFunc(inv.CreateInvestigationHandler))).Methods("POST")
	apiCreate.Handle("/investigations", m.Middleware(http.HandlerFunc(inv.InvestigationsHandler))).Methods("GET")
	apiCreate.Handle("/investigations/selected", m.Middleware(http.HandlerFunc(inv.SelectedInvestigationHandler))).Methods("GET")
	apiCreate.Handle("/investigations/{investigation_id}", m.Middleware(http.HandlerFunc(inv.InvestigationByIDHandler))).Methods("GET")
	apiCreate.Handle("/investigations/{investigation_id}", m.Middleware(http.HandlerFunc(inv.UpdateInvestigationHandler))).Methods("PUT")
	apiCreate.Handle("/investigations/{investigation_id}/select", m.Middleware(http.HandlerFunc(inv.SelectInvestigationHandler))).Methods("PUT")
	apiCreate.Handle("/investigations/{investigation_id}/export", m.Middleware(http.HandlerFunc(inv.ExportInvestigationHandler))).Methods("GET")
	apiCreate.Handle("/investigations/{investigation_id}/images", m.Middleware(http.HandlerFunc(inv.UploadInvestigationImageHandler))).Methods("POST")
	apiCreate.Handle("/investigations/{investigation_id}/upload-signature", m.Middleware(http.HandlerFunc(inv.UploadSignatureHandler))).Methods("GET")

	return r
}

// Initialize is invoked by the serve command to connect the stores, build
// the services and create a router
func (a *App) Initialize(ctx context.Context) error {
	if err := a.initializeStores(ctx); err != nil {
		return err
	}
	if err := a.initializeServices(ctx); err != nil {
		return err
	}
	a.initializeRoutes()
	return nil
}

// initializeStores picks the persistence by DB_DRIVER
func (a *App) initializeStores(ctx context.Context) error {
	switch a.Config.DBDriver {
	case "mongo":
		client, err := databases.NewClient(&a.Config)
		if err != nil {
			// if we fail to create a new database client, then kill the pod
			zap.S().With(err).Error("failed to create new client")
			return err
		}
		if err := client.Connect(ctx); err != nil {
			// if we fail to connect to the database, then kill the pod
			zap.S().With(err).Error("failed to connect to database")
			return err
		}
		a.closers = append(a.closers, client.Disconnect)

		dbHelper := databases.NewDatabase(&a.Config, client)
		a.Investigations = databases.NewInvestigationDatabase(dbHelper)
		a.Officers = databases.NewOfficerDatabase(dbHelper)
		a.Credentials = databases.NewCredentialDatabase(dbHelper)

	case "postgres", "sqlite":
		db, err := databases.OpenRelational(a.Config.DBDriver, a.Config.DatabaseDSN)
		if err != nil {
			zap.S().With(err).Error("failed to connect to database")
			return err
		}
		stores := databases.NewRelationalStores(db)
		a.Investigations = stores.Investigations
		a.Officers = stores.Officers
		a.Credentials = stores.Credentials
		a.closers = append(a.closers, closeRelational(db))

	case "memory":
		db, err := databases.OpenRelational("sqlite", memoryDSN)
		if err != nil {
			return err
		}
		stores := databases.NewRelationalStores(db)
		a.Investigations = investigation.NewMemoryStore()
		a.Officers = stores.Officers
		a.Credentials = stores.Credentials
		a.closers = append(a.closers, closeRelational(db))

	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", a.Config.DBDriver)
	}
	zap.S().Infow("police-investigations-api has connected to the database", "driver", a.Config.DBDriver)
	return nil
}

func closeRelational(db *gorm.DB) func(context.Context) error {
	return func(context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
}

func (a *App) initializeServices(ctx context.Context) error {
	secret := a.Config.JWTSecret
	if secret == "" {
		if a.Config.Env != "local" {
			return errors.New("JWT_SECRET is not set")
		}
		secret = uuid.NewString()
		zap.S().Warn("JWT_SECRET is not set, sessions will not survive a restart")
	}
	a.Sessions = session.NewStore(a.Credentials, []byte(secret), a.Config.SessionTTL)
	a.closers = append(a.closers, func(context.Context) error {
		a.Sessions.Close()
		return nil
	})

	var mailer accounts.Mailer = accounts.LogMailer{}
	if a.Config.SendGridAPIKey != "" {
		mailer = accounts.NewSendGridMailer(a.Config.SendGridAPIKey, a.Config.MailFrom)
	}
	a.Provisioner = accounts.NewProvisioner(a.Sessions, a.Officers, mailer, a.Config.BaseURL)
	a.Sweeper = accounts.NewSweeper(a.Credentials, a.Officers, a.Sessions, a.Config.OrphanGrace, a.Config.SweepSchedule)
	a.Manager = investigation.NewManager(a.Investigations)

	a.Archiver = export.NoopArchiver{}
	if a.Config.ExportS3Bucket != "" {
		archiver, err := export.NewS3Archiver(ctx, a.Config.ExportS3Bucket, a.Config.ExportS3Region)
		if err != nil {
			return fmt.Errorf("export archive: %w", err)
		}
		a.Archiver = archiver
	}

	uploader, err := uploads.NewCloudinary(a.Config.CloudinaryCloudName, a.Config.CloudinaryAPIKey, a.Config.CloudinaryAPISecret)
	switch {
	case errors.Is(err, uploads.ErrNotConfigured):
		zap.S().Info("cloudinary is not configured, image uploads are disabled")
	case err != nil:
		return err
	default:
		a.uploader = uploader
	}
	return nil
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

// Close releases the stores and the session cache, newest first
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
