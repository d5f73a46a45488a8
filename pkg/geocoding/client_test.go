package geocoding

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamtoapp/amwaj-messaging/environments"
	"github.com/dreamtoapp/amwaj-messaging/internal/domain"
)

func mapsConfig(baseURL string) environments.MapsConfig {
	return environments.MapsConfig{
		BaseURL:          baseURL,
		APIKey:           "test-key",
		PrimaryLanguage:  "ar",
		FallbackLanguage: "en",
		FallbackAddress:  DefaultFallbackAddress,
		Timeout:          2 * time.Second,
	}
}

func TestReverseGeocode_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, geocodePath, r.URL.Path)
		assert.Equal(t, "24.7136,46.6753", r.URL.Query().Get("latlng"))
		assert.Equal(t, "ar", r.URL.Query().Get("language"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"OK","results":[{
			"formatted_address":"King Fahd Rd, Riyadh",
			"address_components":[{"long_name":"King Fahd Rd","types":["route"]},{"long_name":"Riyadh","types":["locality","political"]}]
		}]}`))
	}))
	defer srv.Close()

	results, err := NewClient(mapsConfig(srv.URL)).ReverseGeocode(context.Background(), 24.7136, 46.6753, "ar")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "King Fahd Rd, Riyadh", BuildAddress(results, ""))
}

func TestReverseGeocode_ZeroResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
	}))
	defer srv.Close()

	results, err := NewClient(mapsConfig(srv.URL)).ReverseGeocode(context.Background(), 0, 0, "ar")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestReverseGeocode_DeniedIsRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"REQUEST_DENIED","error_message":"The provided API key is invalid.","results":[]}`))
	}))
	defer srv.Close()

	_, err := NewClient(mapsConfig(srv.URL)).ReverseGeocode(context.Background(), 1, 1, "ar")

	var apiErr *domain.RemoteAPIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "The provided API key is invalid.", apiErr.Message)
	assert.Equal(t, "REQUEST_DENIED", apiErr.Type)
}

func TestReverseGeocode_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(mapsConfig(url)).ReverseGeocode(context.Background(), 1, 1, "ar")

	var netErr *domain.NetworkError
	assert.True(t, errors.As(err, &netErr))
}
