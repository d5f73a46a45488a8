package geocoding

import (
	"context"
	"slices"

	"github.com/dreamtoapp/amwaj-messaging/environments"
	"github.com/dreamtoapp/amwaj-messaging/pkg/logger"
)

// DefaultFallbackAddress is shown when no address can be resolved.
const DefaultFallbackAddress = "العنوان غير متوفر"

// BuildAddress renders the first result as "street, neighborhood, locality",
// leaving out the parts the geocoder did not return. It never fails.
func BuildAddress(results []Result, fallback string) string {
	if fallback == "" {
		fallback = DefaultFallbackAddress
	}
	if len(results) == 0 {
		return fallback
	}

	components := results[0].AddressComponents
	streetNumber := component(components, "street_number")
	route := component(components, "route")
	area := component(components, "neighborhood")
	if area == "" {
		area = component(components, "sublocality_level_1")
	}
	locality := component(components, "locality")

	var address string
	switch {
	case streetNumber != "" && route != "":
		address = streetNumber + " " + route
	case route != "":
		address = route
	}

	address = appendPart(address, area)
	address = appendPart(address, locality)

	if address == "" {
		return fallback
	}
	return address
}

func component(components []AddressComponent, kind string) string {
	for _, c := range components {
		if slices.Contains(c.Types, kind) {
			return c.LongName
		}
	}
	return ""
}

func appendPart(address, part string) string {
	switch {
	case part == "":
		return address
	case address == "":
		return part
	default:
		return address + ", " + part
	}
}

type providerSource interface {
	Ready(ctx context.Context) (Provider, error)
}

// Resolver looks addresses up in the primary language first and retries in
// the fallback language when the primary one has nothing.
type Resolver struct {
	source           providerSource
	primaryLanguage  string
	fallbackLanguage string
	fallbackAddress  string
}

func NewResolver(source providerSource, cfg environments.MapsConfig) *Resolver {
	fallback := cfg.FallbackAddress
	if fallback == "" {
		fallback = DefaultFallbackAddress
	}

	return &Resolver{
		source:           source,
		primaryLanguage:  cfg.PrimaryLanguage,
		fallbackLanguage: cfg.FallbackLanguage,
		fallbackAddress:  fallback,
	}
}

func (r *Resolver) FallbackAddress() string {
	return r.fallbackAddress
}

// Lookup always yields a displayable string; failures are logged and replaced
// by the fallback literal.
func (r *Resolver) Lookup(ctx context.Context, lat, lng float64) string {
	provider, err := r.source.Ready(ctx)
	if err != nil {
		logger.Errorf("Map provider unavailable: %v", err)
		return r.fallbackAddress
	}

	results, err := provider.ReverseGeocode(ctx, lat, lng, r.primaryLanguage)
	if err != nil {
		logger.Warnf("Reverse geocoding (%s) failed for %v,%v: %v", r.primaryLanguage, lat, lng, err)
	}

	if len(results) == 0 && r.fallbackLanguage != "" && r.fallbackLanguage != r.primaryLanguage {
		results, err = provider.ReverseGeocode(ctx, lat, lng, r.fallbackLanguage)
		if err != nil {
			logger.Errorf("Reverse geocoding (%s) failed for %v,%v: %v", r.fallbackLanguage, lat, lng, err)
			return r.fallbackAddress
		}
	}

	return BuildAddress(results, r.fallbackAddress)
}
