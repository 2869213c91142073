package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-hazard/internal/db"
)

func newFeatureService(t *testing.T) *FeatureService {
	t.Helper()
	conn, err := db.Open(db.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	fs, err := NewFeatureService(context.Background(), conn)
	require.NoError(t, err)
	return fs
}

func square(minX, minY, size float64) orb.Polygon {
	return orb.Polygon{{
		{minX, minY}, {minX + size, minY}, {minX + size, minY + size},
		{minX, minY + size}, {minX, minY},
	}}
}

func hexCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	a := geojson.NewFeature(square(-100, 30, 2))
	a.ID = "a"
	a.Properties["score7"] = 91.26
	a.Properties["score8"] = 12.0
	fc.Append(a)

	b := geojson.NewFeature(square(-98, 30, 2))
	b.ID = "b"
	b.Properties["score7"] = 40.0
	fc.Append(b)

	// bounding box covers (-94.5, 31.5) but the triangle does not
	tri := geojson.NewFeature(orb.Polygon{{{-96, 30}, {-94, 30}, {-96, 32}, {-96, 30}}})
	tri.ID = "c"
	fc.Append(tri)

	fc.Append(geojson.NewFeature(orb.Point{-99, 31}))
	return fc
}

func TestImportAndQueryHexes(t *testing.T) {
	ctx := context.Background()
	fs := newFeatureService(t)

	n, err := fs.ImportHexes(ctx, hexCollection())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, err := fs.QueryIntersects(ctx, orb.Point{-99, 31})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 91.26, got[0].Properties["score7"])

	scores := Scores(got[0])
	assert.Equal(t, map[string]float64{"score7": 91.26, "score8": 12}, scores)

	got, err = fs.QueryIntersects(ctx, orb.Point{-94.5, 31.5})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = fs.QueryIntersects(ctx, orb.Point{0, 0})
	require.NoError(t, err)
	assert.Empty(t, got)

	// reimport replaces
	n, err = fs.ImportHexes(ctx, geojson.NewFeatureCollection())
	require.NoError(t, err)
	assert.Zero(t, n)
	hexes, _, err := fs.Counts(ctx)
	require.NoError(t, err)
	assert.Zero(t, hexes)
}

func TestFindPlaces(t *testing.T) {
	ctx := context.Background()
	fs := newFeatureService(t)

	fc := geojson.NewFeatureCollection()
	for name, pt := range map[string]orb.Point{
		"Austin":       {-97.74, 30.27},
		"Houston":      {-95.37, 29.76},
		"South Austin": {-97.78, 30.22},
	} {
		f := geojson.NewFeature(pt)
		f.Properties["name"] = name
		fc.Append(f)
	}
	unnamed := geojson.NewFeature(orb.Point{1, 1})
	fc.Append(unnamed)

	n, err := fs.ImportPlaces(ctx, fc)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	res, err := fs.FindPlaces(ctx, "  AUSTIN ", 0)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "Austin", res[0].Name)
	assert.Equal(t, orb.Point{-97.74, 30.27}, res[0].Point)
	assert.Equal(t, "Austin", res[0].Feature.Properties.MustString("name"))
	assert.Equal(t, "South Austin", res[1].Name)

	res, err = fs.FindPlaces(ctx, "austin", 1)
	require.NoError(t, err)
	assert.Len(t, res, 1)

	res, err = fs.FindPlaces(ctx, "", 5)
	require.NoError(t, err)
	assert.Empty(t, res)

	_, places, err := fs.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, places)
}

func TestDatasetFor(t *testing.T) {
	d, err := DatasetFor("hex_score.geojson")
	require.NoError(t, err)
	assert.Equal(t, DatasetHex, d)

	d, err = DatasetFor("Places.JSON")
	require.NoError(t, err)
	assert.Equal(t, DatasetPlaces, d)

	_, err = DatasetFor("hex.parquet")
	assert.ErrorIs(t, err, ErrUnknownDataset)
}

func TestSourceLoadAll(t *testing.T) {
	ctx := context.Background()
	fs := newFeatureService(t)
	dir := t.TempDir()
	src := NewSourceService(dir, fs)

	files, err := src.List()
	require.NoError(t, err)
	assert.Empty(t, files)

	require.NoError(t, os.MkdirAll(src.SourcesDir(), 0o755))
	hexJSON, err := hexCollection().MarshalJSON()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(src.SourcesDir(), "hex_score.geojson"), hexJSON, 0o644))

	places := geojson.NewFeatureCollection()
	p := geojson.NewFeature(orb.Point{-97.74, 30.27})
	p.Properties["name"] = "Austin"
	places.Append(p)
	placesJSON, err := places.MarshalJSON()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(src.SourcesDir(), "places.geojson"), placesJSON, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src.SourcesDir(), "notes.txt"), []byte("x"), 0o644))

	files, err = src.List()
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "hex_score.geojson", files[0].Name)
	assert.Equal(t, DatasetHex, files[0].Dataset)

	loaded, err := src.LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"hex_score.geojson": 3, "places.geojson": 1}, loaded)

	_, err = src.LoadFile(ctx, filepath.Join(src.SourcesDir(), "missing.geojson"))
	assert.Error(t, err)
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "512 B", formatSize(512))
	assert.Equal(t, "1.5 KB", formatSize(1536))
	assert.Equal(t, "2.0 MB", formatSize(2*1024*1024))
}

func TestFindPlacesMatchesWildcardsLiterally(t *testing.T) {
	ctx := context.Background()
	fs := newFeatureService(t)

	fc := geojson.NewFeatureCollection()
	for i, name := range []string{"Fort_Worth", "FortXWorth", "100% Lake", "1000 Lakes"} {
		f := geojson.NewFeature(orb.Point{float64(-100 + i), 30})
		f.Properties["name"] = name
		fc.Append(f)
	}
	_, err := fs.ImportPlaces(ctx, fc)
	require.NoError(t, err)

	res, err := fs.FindPlaces(ctx, "fort_", 5)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "Fort_Worth", res[0].Name)

	res, err = fs.FindPlaces(ctx, "100%", 5)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "100% Lake", res[0].Name)
}
