package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/joeblew999/plat-hazard/internal/api"
	"github.com/joeblew999/plat-hazard/internal/api/viewer"
	"github.com/joeblew999/plat-hazard/internal/arcgis"
	"github.com/joeblew999/plat-hazard/internal/config"
	"github.com/joeblew999/plat-hazard/internal/db"
	"github.com/joeblew999/plat-hazard/internal/observability"
	"github.com/joeblew999/plat-hazard/internal/search"
	"github.com/joeblew999/plat-hazard/internal/service"
	"github.com/joeblew999/plat-hazard/internal/style"
)

// Config holds the server configuration.
type Config struct {
	App    *config.Config
	Preset string // overrides App.Map.Preset when set

	Logger  *zap.Logger
	Metrics *observability.Metrics // nil registers new metrics with the default registry
	Clock   clockwork.Clock
}

// Server is the hazard map HTTP server.
type Server struct {
	config   Config
	preset   config.Preset
	mux      *http.ServeMux
	humaAPI  huma.API
	db       *sql.DB
	services *api.Services
	viewer   *viewer.Handler
	scale    *style.Debouncer
	logger   *zap.Logger
}

// New creates the server: it opens the feature store, loads the source
// files, builds the layers of the preset and registers every route.
func New(ctx context.Context, cfg Config) (*Server, error) {
	app := cfg.App
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observability.NewMetrics()
	}
	log := cfg.Logger

	preset, err := app.Preset(cfg.Preset)
	if err != nil {
		return nil, err
	}
	policy, err := search.ParsePolicy(app.Map.PopupPolicy)
	if err != nil {
		return nil, eris.Wrap(err, "config: map.popup_policy")
	}

	bus := service.NewEventBus()
	layers := service.NewLayerService(bus)
	if err := layers.Build(preset); err != nil {
		return nil, err
	}
	ctrl, err := layers.Controller(preset.Rules)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config: cfg,
		preset: preset,
		mux:    http.NewServeMux(),
		logger: log,
	}
	s.scale = style.NewDebouncer(ctrl, cfg.Clock, app.Map.ScaleDebounce, func(applied []style.Applied) {
		cfg.Metrics.ScaleChanges.Inc()
		for _, a := range applied {
			if a.Changed {
				cfg.Metrics.StyleUpdates.WithLabelValues(a.LayerID).Inc()
			}
		}
		if scale, ok := ctrl.Scale(); ok {
			bus.Publish(service.ScaleEvent(scale, applied))
		}
	})

	var features *service.FeatureService
	var sources *service.SourceService
	conn, err := db.Open(db.Config{DataDir: app.Server.DataDir, DBName: "hazard"})
	if err != nil {
		log.Warn("feature store unavailable", zap.Error(err))
	} else {
		s.db = conn
		features, err = service.NewFeatureService(ctx, conn)
		if err != nil {
			conn.Close()
			return nil, err
		}
		sources = service.NewSourceService(app.Server.DataDir, features)
		loadSources(ctx, sources, features, cfg.Metrics, log)
	}

	hex := s.hexQuerier(features)
	var places search.Finder
	switch {
	case features != nil:
		places = features
	case app.Map.PlacesURL != "":
		places = arcgis.NewClient(app.Map.PlacesURL, app.Map.QueryTimeout, log)
	}

	s.services = &api.Services{
		Layers:    layers,
		Style:     ctrl,
		Bus:       bus,
		Features:  features,
		Sources:   sources,
		Hex:       hex,
		Places:    places,
		Preset:    preset,
		Policy:    policy,
		HexSource: app.Map.HexSource,
		DataDir:   app.Server.DataDir,
		Metrics:   cfg.Metrics,
		Logger:    log,
	}

	renderer, err := viewer.NewRenderer()
	if err != nil {
		s.Close()
		return nil, eris.Wrap(err, "parse viewer fragments")
	}
	s.viewer = viewer.NewHandler(viewer.Deps{
		Layers:  layers,
		Scale:   s.scale,
		Bus:     bus,
		Places:  places,
		Hex:     hex,
		Preset:  preset,
		Policy:  policy,
		Metrics: cfg.Metrics,
		Logger:  log,
	}, renderer)

	// Create Huma API with humago (pure stdlib) adapter
	humaConfig := huma.DefaultConfig("plat-hazard API", api.Version)
	humaConfig.Info.Description = "The United States of Rising Hazards: map layers, scale styles, symbol layout and location search."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%d", app.Server.Host, app.Server.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, api.LinkTransformer())
	s.humaAPI = humago.New(s.mux, humaConfig)

	s.routes()
	return s, nil
}

// hexQuerier picks where hexagon queries go and wraps it with timing.
func (s *Server) hexQuerier(features *service.FeatureService) search.HexQuerier {
	app := s.config.App
	var next search.HexQuerier
	switch {
	case app.Map.HexSource == config.HexSourceRemote:
		next = arcgis.NewClient(s.preset.Layers.HexURL, app.Map.QueryTimeout, s.logger)
	case features != nil:
		next = features
	default:
		s.logger.Warn("no local feature store, querying the hexagon service instead",
			zap.String("url", s.preset.Layers.HexURL))
		next = arcgis.NewClient(s.preset.Layers.HexURL, app.Map.QueryTimeout, s.logger)
	}
	return &timedHex{
		next:     next,
		timeout:  app.Map.QueryTimeout,
		duration: s.config.Metrics.HexQueryDuration,
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// OpenAPI returns the OpenAPI document of the REST and viewer routes.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// Preset returns the active preset.
func (s *Server) Preset() config.Preset {
	return s.preset
}

// Close stops pending scale updates and closes the feature store.
func (s *Server) Close() error {
	s.scale.Stop()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Server) routes() {
	// Register Huma REST API routes (OpenAPI-documented JSON endpoints)
	huma.AutoRegister(s.humaAPI, api.NewAPIHandler(s.services))

	// Viewer SSE routes using Huma + Datastar SDK
	s.viewer.RegisterRoutes(s.humaAPI)

	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc("/", s.viewer.Page)
}
