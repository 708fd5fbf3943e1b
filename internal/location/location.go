package location

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/shinyyama/carbon-credit-backend/internal/model"
)

// PhotoRef identifies an uploaded field photo.
type PhotoRef struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType,omitempty"`
	Size        int64  `json:"size,omitempty"`
}

// Provider resolves where a photo was taken.
type Provider interface {
	Locate(ctx context.Context, photo PhotoRef) (*model.Location, error)
}

const (
	defaultLat    = 20.2961
	defaultLng    = 85.8245
	defaultName   = "Bhubaneswar, Odisha"
	defaultJitter = 0.05
)

// MockProvider does not read image metadata. It returns a point scattered
// around a fixed centre.
type MockProvider struct {
	Lat, Lng float64
	Name     string
	Jitter   float64

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewMockProvider(rnd *rand.Rand) *MockProvider {
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &MockProvider{Lat: defaultLat, Lng: defaultLng, Name: defaultName, Jitter: defaultJitter, rnd: rnd}
}

func (p *MockProvider) Locate(ctx context.Context, photo PhotoRef) (*model.Location, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if photo.Name == "" {
		return nil, fmt.Errorf("locate: photo has no name")
	}
	p.mu.Lock()
	dLat := (p.rnd.Float64()*2 - 1) * p.Jitter
	dLng := (p.rnd.Float64()*2 - 1) * p.Jitter
	p.mu.Unlock()
	return &model.Location{Lat: p.Lat + dLat, Lng: p.Lng + dLng, Name: p.Name}, nil
}

// FormatCoordinates renders "20.2961°N, 85.8245°E".
func FormatCoordinates(lat, lng float64) string {
	ns, ew := "N", "E"
	if lat < 0 {
		ns = "S"
	}
	if lng < 0 {
		ew = "W"
	}
	return fmt.Sprintf("%.4f°%s, %.4f°%s", math.Abs(lat), ns, math.Abs(lng), ew)
}
