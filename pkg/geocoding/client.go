package geocoding

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/dreamtoapp/amwaj-messaging/environments"
	"github.com/dreamtoapp/amwaj-messaging/internal/domain"
	"github.com/dreamtoapp/amwaj-messaging/pkg/logger"
)

const (
	serviceName = "geocoding"
	geocodePath = "/maps/api/geocode/json"

	statusOK          = "OK"
	statusZeroResults = "ZERO_RESULTS"
)

type AddressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Result struct {
	FormattedAddress  string             `json:"formatted_address"`
	PlaceID           string             `json:"place_id"`
	AddressComponents []AddressComponent `json:"address_components"`
	Geometry          struct {
		Location LatLng `json:"location"`
	} `json:"geometry"`
}

type geocodeResponse struct {
	Status       string   `json:"status"`
	ErrorMessage string   `json:"error_message"`
	Results      []Result `json:"results"`
}

// Provider turns coordinates into address candidates in the given language.
type Provider interface {
	ReverseGeocode(ctx context.Context, lat, lng float64, language string) ([]Result, error)
}

// Client calls the Google Geocoding web service.
type Client struct {
	httpClient *resty.Client
	apiKey     string
}

func NewClient(cfg environments.MapsConfig) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(1).
		SetRetryWaitTime(300 * time.Millisecond).
		SetHeader("Accept", "application/json")

	client.AddRetryCondition(func(_ *resty.Response, err error) bool {
		return err != nil
	})

	return &Client{
		httpClient: client,
		apiKey:     cfg.APIKey,
	}
}

func (c *Client) ReverseGeocode(ctx context.Context, lat, lng float64, language string) ([]Result, error) {
	var body geocodeResponse

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"latlng":   formatCoord(lat) + "," + formatCoord(lng),
			"language": language,
			"key":      c.apiKey,
		}).
		SetResult(&body).
		Get(geocodePath)
	if err != nil {
		return nil, &domain.NetworkError{Service: serviceName, Err: err}
	}

	if !resp.IsSuccess() {
		return nil, &domain.RemoteAPIError{
			Service:    serviceName,
			StatusCode: resp.StatusCode(),
			Message:    resp.Status(),
		}
	}

	switch body.Status {
	case statusOK:
		return body.Results, nil
	case statusZeroResults:
		return []Result{}, nil
	default:
		logger.Warnf("Geocoding %s,%s returned %s", formatCoord(lat), formatCoord(lng), body.Status)
		message := body.ErrorMessage
		if message == "" {
			message = body.Status
		}
		return nil, &domain.RemoteAPIError{
			Service:    serviceName,
			StatusCode: resp.StatusCode(),
			Message:    message,
			Type:       body.Status,
		}
	}
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
