package server

import (
	"context"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/joeblew999/plat-hazard/internal/db"
	"github.com/joeblew999/plat-hazard/internal/observability"
	"github.com/joeblew999/plat-hazard/internal/search"
	"github.com/joeblew999/plat-hazard/internal/service"
)

// timedHex bounds and measures hexagon queries.
type timedHex struct {
	next     search.HexQuerier
	timeout  time.Duration
	duration prometheus.Observer
}

func (t *timedHex) QueryIntersects(ctx context.Context, p orb.Point) ([]*geojson.Feature, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	timer := prometheus.NewTimer(t.duration)
	defer timer.ObserveDuration()
	return t.next.QueryIntersects(ctx, p)
}

// loadSources imports the source files and records the store size. A bad
// file is logged; the server still starts with what is already stored.
func loadSources(ctx context.Context, sources *service.SourceService, features *service.FeatureService, m *observability.Metrics, log *zap.Logger) {
	loaded, err := sources.LoadAll(ctx)
	if err != nil {
		log.Error("load sources", zap.String("dir", sources.SourcesDir()), zap.Error(err))
	}
	for file, n := range loaded {
		log.Info("loaded source", zap.String("file", file), zap.Int("features", n))
	}

	hexes, places, err := features.Counts(ctx)
	if err != nil {
		log.Warn("count features", zap.Error(err))
		return
	}
	m.FeaturesLoaded.WithLabelValues(service.DatasetHex).Set(float64(hexes))
	m.FeaturesLoaded.WithLabelValues(service.DatasetPlaces).Set(float64(places))
}

// Load imports the source files of dataDir into its feature store without
// starting a server.
func Load(ctx context.Context, dataDir string) (map[string]int, error) {
	conn, err := db.Open(db.Config{DataDir: dataDir, DBName: "hazard"})
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	features, err := service.NewFeatureService(ctx, conn)
	if err != nil {
		return nil, err
	}
	return service.NewSourceService(dataDir, features).LoadAll(ctx)
}
