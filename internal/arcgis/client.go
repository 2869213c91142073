// Package arcgis queries hosted ArcGIS feature services.
package arcgis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrService is returned when the service answers with an error document.
var ErrService = eris.New("arcgis service error")

// Client queries layer 0 of one FeatureServer.
type Client struct {
	httpClient *http.Client
	serviceURL string
	layer      int
	logger     *zap.Logger
}

// NewClient creates a client for serviceURL, e.g.
// https://services.arcgis.com/<org>/arcgis/rest/services/hex_score/FeatureServer.
func NewClient(serviceURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		serviceURL: strings.TrimRight(serviceURL, "/"),
		logger:     logger,
	}
}

type errorDocument struct {
	Error *struct {
		Code    int      `json:"code"`
		Message string   `json:"message"`
		Details []string `json:"details"`
	} `json:"error"`
}

// QueryIntersects returns the features of the layer intersecting p, with
// all attributes.
func (c *Client) QueryIntersects(ctx context.Context, p orb.Point) ([]*geojson.Feature, error) {
	q := url.Values{}
	q.Set("geometry", fmt.Sprintf("%f,%f", p.Lon(), p.Lat()))
	q.Set("geometryType", "esriGeometryPoint")
	q.Set("inSR", "4326")
	q.Set("spatialRel", "esriSpatialRelIntersects")
	q.Set("outFields", "*")
	q.Set("returnGeometry", "true")
	q.Set("outSR", "4326")
	q.Set("f", "geojson")

	fc, err := c.query(ctx, q)
	if err != nil {
		return nil, err
	}
	return fc.Features, nil
}

// QueryWhere returns the features matching a SQL where clause.
func (c *Client) QueryWhere(ctx context.Context, where string, limit int) ([]*geojson.Feature, error) {
	q := url.Values{}
	q.Set("where", where)
	q.Set("outFields", "*")
	q.Set("returnGeometry", "true")
	q.Set("outSR", "4326")
	q.Set("f", "geojson")
	if limit > 0 {
		q.Set("resultRecordCount", fmt.Sprint(limit))
	}

	fc, err := c.query(ctx, q)
	if err != nil {
		return nil, err
	}
	return fc.Features, nil
}

func (c *Client) query(ctx context.Context, q url.Values) (*geojson.FeatureCollection, error) {
	endpoint := fmt.Sprintf("%s/%d/query?%s", c.serviceURL, c.layer, q.Encode())

	c.logger.Debug("querying feature service", zap.String("url", endpoint))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, eris.Wrap(err, "create request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("feature service request failed", zap.Error(err))
		return nil, eris.Wrap(err, "execute request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "read response")
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("feature service returned error",
			zap.Int("status_code", resp.StatusCode),
			zap.String("body", string(body)))
		return nil, eris.Wrapf(ErrService, "status %d", resp.StatusCode)
	}

	// errors come back as 200 with an error document
	var errDoc errorDocument
	if json.Unmarshal(body, &errDoc) == nil && errDoc.Error != nil {
		c.logger.Error("feature service returned error document",
			zap.Int("code", errDoc.Error.Code),
			zap.String("message", errDoc.Error.Message))
		return nil, eris.Wrapf(ErrService, "code %d: %s", errDoc.Error.Code, errDoc.Error.Message)
	}

	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return nil, eris.Wrap(err, "decode feature collection")
	}

	c.logger.Debug("feature service query complete", zap.Int("features", len(fc.Features)))
	return fc, nil
}
