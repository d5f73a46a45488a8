package location

import (
	"context"
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/dreamtoapp/amwaj-messaging/internal/domain"
)

// MaxTitleLength is the longest title, in characters, a selection may carry.
const MaxTitleLength = 30

var (
	ErrNoSelection  = fmt.Errorf("no location selected: %w", domain.ErrInvalidState)
	ErrDragDisabled = fmt.Errorf("marker dragging is disabled: %w", domain.ErrInvalidState)
)

// Capabilities switches the optional picker features.
type Capabilities struct {
	Draggable     bool `json:"draggable"`
	AddressLookup bool `json:"addressLookup"`
	RTL           bool `json:"rtl"`
}

// DefaultCapabilities is the full-featured Arabic picker.
func DefaultCapabilities() Capabilities {
	return Capabilities{Draggable: true, AddressLookup: true, RTL: true}
}

type addressResolver interface {
	Lookup(ctx context.Context, lat, lng float64) string
	FallbackAddress() string
}

// Picker holds at most one selected location. Each new selection replaces the
// previous one entirely; a drag only moves it.
type Picker struct {
	resolver     addressResolver
	capabilities Capabilities

	mu       sync.RWMutex
	selected *domain.SelectedLocation
}

func NewPicker(resolver addressResolver, capabilities Capabilities) *Picker {
	return &Picker{
		resolver:     resolver,
		capabilities: capabilities,
	}
}

func (p *Picker) Capabilities() Capabilities {
	return p.capabilities
}

func (p *Picker) address(ctx context.Context, lat, lng float64) string {
	if !p.capabilities.AddressLookup {
		return p.resolver.FallbackAddress()
	}
	return p.resolver.Lookup(ctx, lat, lng)
}

// Select places a new marker. Title, landmark and delivery note of the previous
// selection are dropped.
func (p *Picker) Select(ctx context.Context, lat, lng float64) (domain.SelectedLocation, error) {
	if err := domain.ValidateCoordinates(lat, lng); err != nil {
		return domain.SelectedLocation{}, err
	}

	selection := domain.SelectedLocation{
		Latitude:  lat,
		Longitude: lng,
		Address:   p.address(ctx, lat, lng),
	}

	p.mu.Lock()
	p.selected = &selection
	p.mu.Unlock()

	return selection, nil
}

// Drag moves the existing marker and refreshes its address. Annotations are kept.
func (p *Picker) Drag(ctx context.Context, lat, lng float64) (domain.SelectedLocation, error) {
	if !p.capabilities.Draggable {
		return domain.SelectedLocation{}, ErrDragDisabled
	}
	if err := domain.ValidateCoordinates(lat, lng); err != nil {
		return domain.SelectedLocation{}, err
	}
	if _, ok := p.Current(); !ok {
		return domain.SelectedLocation{}, ErrNoSelection
	}

	address := p.address(ctx, lat, lng)

	p.mu.Lock()
	defer p.mu.Unlock()

	// Cleared while the lookup was running.
	if p.selected == nil {
		return domain.SelectedLocation{}, ErrNoSelection
	}

	moved := *p.selected
	moved.Latitude = lat
	moved.Longitude = lng
	moved.Address = address
	p.selected = &moved

	return moved, nil
}

func (p *Picker) Annotate(title, landmark, deliveryNote string) (domain.SelectedLocation, error) {
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return domain.SelectedLocation{}, fmt.Errorf("title longer than %d characters: %w", MaxTitleLength, domain.ErrInvalidInput)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.selected == nil {
		return domain.SelectedLocation{}, ErrNoSelection
	}

	annotated := *p.selected
	annotated.Title = title
	annotated.Landmark = landmark
	annotated.DeliveryNote = deliveryNote
	p.selected = &annotated

	return annotated, nil
}

func (p *Picker) Current() (domain.SelectedLocation, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.selected == nil {
		return domain.SelectedLocation{}, false
	}
	return *p.selected, true
}

func (p *Picker) Clear() {
	p.mu.Lock()
	p.selected = nil
	p.mu.Unlock()
}
