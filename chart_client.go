package oracleworker

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

const chartDefaultTimeout = 30 * time.Second

// ChartHTTPClient implements ChartService against the internal
// ephemeris microservice.
type ChartHTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewChartHTTPClient creates a chart client for the given base URL.
func NewChartHTTPClient(baseURL string) *ChartHTTPClient {
	return &ChartHTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: chartDefaultTimeout},
	}
}

type chartRequest struct {
	BirthDate     string `json:"birthDate"`
	BirthTime     string `json:"birthTime"`
	BirthCountry  string `json:"birthCountry"`
	BirthProvince string `json:"birthProvince"`
	BirthCity     string `json:"birthCity"`
	Timezone      string `json:"timezone,omitempty"`
}

type chartResponse struct {
	Success         bool    `json:"success"`
	Error           string  `json:"error,omitempty"`
	SunSign         string  `json:"sunSign"`
	SunDegree       float64 `json:"sunDegree"`
	MoonSign        string  `json:"moonSign"`
	MoonDegree      float64 `json:"moonDegree"`
	RisingSign      string  `json:"risingSign"`
	RisingDegree    float64 `json:"risingDegree"`
	VenusSign       string  `json:"venusSign"`
	VenusDegree     float64 `json:"venusDegree"`
	MarsSign        string  `json:"marsSign"`
	MarsDegree      float64 `json:"marsDegree"`
	MercurySign     string  `json:"mercurySign"`
	MercuryDegree   float64 `json:"mercuryDegree"`
	NorthNodeSign   string  `json:"northNodeSign"`
	NorthNodeDegree float64 `json:"northNodeDegree"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	Timezone        string  `json:"timezone"`
}

// ComputeChart submits birth details for natal chart calculation.
func (c *ChartHTTPClient) ComputeChart(ctx context.Context, birth BirthDetails) (*ChartResult, error) {
	payload, err := json.Marshal(chartRequest{
		BirthDate:     birth.Date,
		BirthTime:     birth.Time,
		BirthCountry:  birth.Country,
		BirthProvince: birth.Province,
		BirthCity:     birth.City,
		Timezone:      birth.Timezone,
	})
	if err != nil {
		return nil, errors.Wrap(err, "encoding chart request")
	}

	var decoded chartResponse
	if err := c.postJSON(ctx, c.baseURL+"/api/chart/calculate", payload, &decoded); err != nil {
		return nil, err
	}

	return &ChartResult{
		Success: decoded.Success,
		Error:   decoded.Error,
		AstrologySnapshot: AstrologySnapshot{
			SunSign:         decoded.SunSign,
			SunDegree:       decoded.SunDegree,
			MoonSign:        decoded.MoonSign,
			MoonDegree:      decoded.MoonDegree,
			RisingSign:      decoded.RisingSign,
			RisingDegree:    decoded.RisingDegree,
			VenusSign:       decoded.VenusSign,
			VenusDegree:     decoded.VenusDegree,
			MarsSign:        decoded.MarsSign,
			MarsDegree:      decoded.MarsDegree,
			MercurySign:     decoded.MercurySign,
			MercuryDegree:   decoded.MercuryDegree,
			NorthNodeSign:   decoded.NorthNodeSign,
			NorthNodeDegree: decoded.NorthNodeDegree,
			Latitude:        decoded.Latitude,
			Longitude:       decoded.Longitude,
			Timezone:        decoded.Timezone,
		},
	}, nil
}

type planetsResponse struct {
	Planets []struct {
		Name       string  `json:"name"`
		Icon       string  `json:"icon"`
		Sign       string  `json:"sign"`
		Degree     float64 `json:"degree"`
		Retrograde bool    `json:"retrograde"`
	} `json:"planets"`
}

// CurrentPlanets fetches today's transiting planet positions.
func (c *ChartHTTPClient) CurrentPlanets(ctx context.Context) ([]PlanetPosition, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/chart/current-planets", nil)
	if err != nil {
		return nil, errors.Wrap(err, "building planets request")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "planets call")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Wrap(err, "reading planets response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.Errorf("planets http %d: %s", resp.StatusCode, previewBody(body))
	}

	var decoded planetsResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, errors.Wrap(err, "decoding planets response")
	}
	positions := make([]PlanetPosition, len(decoded.Planets))
	for i, p := range decoded.Planets {
		positions[i] = PlanetPosition{
			Name:       p.Name,
			Icon:       p.Icon,
			Sign:       p.Sign,
			Degree:     p.Degree,
			Retrograde: p.Retrograde,
		}
	}
	return positions, nil
}

func (c *ChartHTTPClient) postJSON(ctx context.Context, url string, payload []byte, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "building chart request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "chart call")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return errors.Wrap(err, "reading chart response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Errorf("chart http %d: %s", resp.StatusCode, previewBody(body))
	}
	return errors.Wrap(json.Unmarshal(body, out), "decoding chart response")
}
