package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/linesmerrill/causelist-api/api"
	"github.com/linesmerrill/causelist-api/archive"
	"github.com/linesmerrill/causelist-api/config"
	"github.com/linesmerrill/causelist-api/databases"
	"github.com/linesmerrill/causelist-api/models"
	"github.com/linesmerrill/causelist-api/registry"
	"github.com/linesmerrill/causelist-api/seed"
	"github.com/linesmerrill/causelist-api/session"
	"github.com/linesmerrill/causelist-api/summarize"
)

const (
	archiveQueueSize  = 100
	metricsMaxTraces  = 10000
	metricsWindow     = time.Hour
	defaultReqTimeout = 30 * time.Second
)

// App stores the router and the services behind it, so it can be reused
type App struct {
	Router     *mux.Router
	Config     config.Config
	Registry   *registry.Registry
	Sessions   *session.Manager
	Archive    *archive.Writer
	Summarizer summarize.Summarizer
	Auth       *api.Authorizer
	Metrics    *api.MetricsCollector

	client   databases.ClientHelper
	dbHelper databases.DatabaseHelper
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	if a.Sessions == nil {
		a.Sessions = session.NewManager()
	}
	if a.Summarizer == nil {
		a.Summarizer = summarize.Fallback{}
	}
	if a.Metrics == nil {
		a.Metrics = api.NewMetricsCollector(metricsMaxTraces, metricsWindow)
	}
	timeout := a.Config.RequestTimeout
	if timeout <= 0 {
		timeout = defaultReqTimeout
	}

	var arch Archiver
	if a.Archive != nil {
		arch = a.Archive
	}

	h := Hearing{Registry: a.Registry, Sessions: a.Sessions, Archive: arch, Summarizer: a.Summarizer}
	l := Live{Registry: a.Registry, Sessions: a.Sessions}
	d := Dashboard{Registry: a.Registry, Metrics: a.Metrics}
	auth := Auth{Authorizer: a.Auth}
	ar := Archived{}
	if a.dbHelper != nil {
		ar.DB = databases.NewArchiveDatabase(a.dbHelper)
	}

	anyRole := a.Auth.Require()
	judge := a.Auth.Require(models.RoleJudge)
	counsel := a.Auth.Require(models.RoleLawyer, models.RoleAdmin)
	bench := a.Auth.Require(models.RoleJudge, models.RoleAdmin)
	admin := a.Auth.Require(models.RoleAdmin)

	// healthchex
	r := api.New()
	r.Use(a.Metrics.Middleware)

	apiV1 := r.PathPrefix("/api/v1").Subrouter()
	apiV1.Use(api.TimeoutMiddleware(timeout))

	apiV1.Handle("/auth/role", http.HandlerFunc(auth.RoleTokenHandler)).Methods("POST")

	apiV1.Handle("/readiness-reasons", counsel(http.HandlerFunc(h.ReadinessReasonsHandler))).Methods("GET")
	apiV1.Handle("/hearings", anyRole(http.HandlerFunc(h.HearingsHandler))).Methods("GET")
	apiV1.Handle("/hearings/{hearing_id}", anyRole(http.HandlerFunc(h.HearingByIDHandler))).Methods("GET")
	apiV1.Handle("/hearings/{hearing_id}/readiness", counsel(http.HandlerFunc(h.DeclareReadinessHandler))).Methods("PUT")
	apiV1.Handle("/hearings/{hearing_id}/order-draft", judge(http.HandlerFunc(h.OrderDraftHandler))).Methods("POST")
	apiV1.Handle("/hearings/{hearing_id}/complete", judge(http.HandlerFunc(h.CompleteHearingHandler))).Methods("POST")
	apiV1.Handle("/hearings/{hearing_id}/transcript", judge(http.HandlerFunc(l.AppendTranscriptHandler))).Methods("POST")
	apiV1.Handle("/hearings/{hearing_id}/transcript", judge(http.HandlerFunc(l.TranscriptHandler))).Methods("GET")

	apiV1.Handle("/alerts", bench(http.HandlerFunc(d.AlertsHandler))).Methods("GET")
	apiV1.Handle("/stats", bench(http.HandlerFunc(d.StatsHandler))).Methods("GET")
	apiV1.Handle("/case-summary", bench(http.HandlerFunc(d.CaseSummaryHandler))).Methods("GET")
	apiV1.Handle("/archive", bench(http.HandlerFunc(ar.ArchivedHearingsHandler))).Methods("GET")
	apiV1.Handle("/archive/{hearing_id}", bench(http.HandlerFunc(ar.ArchivedHearingHandler))).Methods("GET")
	apiV1.Handle("/metrics", admin(http.HandlerFunc(d.MetricsHandler))).Methods("GET")

	r.Handle("/ws/hearings/{hearing_id}", anyRole(http.HandlerFunc(l.StreamHandler))).Methods("GET")

	return r
}

// Initialize is invoked by main to load the docket, connect the optional database and
// create a router
func (a *App) Initialize(ctx context.Context) error {
	if a.Config.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is not set")
	}

	data, err := a.loadDocket(time.Now())
	if err != nil {
		zap.S().Errorw("failed to load docket", "error", err)
		return err
	}

	if a.Config.URL != "" {
		if err := a.connect(ctx); err != nil {
			return err
		}
		hearings, err := storedHearings(ctx, databases.NewHearingDatabase(a.dbHelper))
		if err != nil {
			zap.S().Errorw("failed to read hearings from database", "error", err)
			return err
		}
		if len(hearings) > 0 {
			data.Hearings = hearings
		}
		a.Archive = archive.NewWriter(databases.NewArchiveDatabase(a.dbHelper), archiveQueueSize, api.QueryTimeout)
	} else {
		zap.S().Warn("DB_URI not set, completed hearings will not be archived")
	}

	a.Registry, err = registry.New(data.Hearings, data.Options()...)
	if err != nil {
		zap.S().Errorw("invalid docket", "error", err)
		return err
	}
	zap.S().Infow("hearing registry loaded", "hearings", len(data.Hearings))

	a.Sessions = session.NewManager()
	a.Auth = api.NewAuthorizer(a.Config.JWTSecret, api.DefaultTokenTTL)
	a.Metrics = api.NewMetricsCollector(metricsMaxTraces, metricsWindow)
	a.Summarizer = a.newSummarizer(ctx)

	// initialize api router
	a.initializeRoutes()
	return nil
}

// Start launches the background workers owned by the app
func (a *App) Start() {
	if a.Archive != nil {
		a.Archive.Start()
	}
}

// Close drains the archive queue, stops metrics and disconnects from the database
func (a *App) Close(ctx context.Context) error {
	var firstErr error
	if a.Archive != nil {
		if err := a.Archive.Stop(ctx); err != nil {
			zap.S().Errorw("archive queue not drained", "error", err)
			firstErr = err
		}
	}
	if a.Metrics != nil {
		a.Metrics.Stop()
	}
	if a.client != nil {
		if err := a.client.Disconnect(ctx); err != nil {
			zap.S().Errorw("failed to disconnect from database", "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func (a *App) loadDocket(now time.Time) (seed.Data, error) {
	if a.Config.SeedFile == "" {
		return seed.Default(now), nil
	}
	zap.S().Infow("loading docket file", "path", a.Config.SeedFile)
	return seed.LoadFile(a.Config.SeedFile, now)
}

func (a *App) connect(ctx context.Context) error {
	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().Errorw("failed to create new client", "error", err)
		return err
	}

	cctx, cancel := api.WithQueryTimeout(ctx)
	defer cancel()
	if err := client.Connect(cctx); err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().Errorw("failed to connect to database", "error", err)
		return err
	}
	a.client = client
	a.dbHelper = databases.NewDatabase(&a.Config, client)
	zap.S().Info("causelist-api has connected to the database")
	return nil
}

func storedHearings(ctx context.Context, hdb databases.HearingDatabase) ([]models.Hearing, error) {
	cctx, cancel := api.WithQueryTimeout(ctx)
	defer cancel()

	n, err := hdb.CountDocuments(cctx, bson.M{})
	if err != nil {
		return nil, err
	}
	if n == 0 {
		zap.S().Info("hearings collection is empty, keeping the docket")
		return nil, nil
	}
	return hdb.Find(cctx, bson.M{})
}

func (a *App) newSummarizer(ctx context.Context) summarize.Summarizer {
	if a.Config.GeminiAPIKey == "" {
		zap.S().Warn("GEMINI_API_KEY not set, order drafts will use the fallback text")
		return summarize.Fallback{}
	}
	g, err := summarize.NewGenAI(ctx, a.Config.GeminiAPIKey, a.Config.GeminiModel)
	if err != nil {
		zap.S().Errorw("failed to create order drafter, using the fallback text", "error", err)
		return summarize.Fallback{}
	}
	return summarize.Fallback{Next: g, Timeout: summarize.DefaultTimeout}
}
