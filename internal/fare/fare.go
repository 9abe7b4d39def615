// Package fare prices expert sessions and tracks value delivered during a
// live session.
package fare

import (
	"math"
	"time"

	"github.com/navin3756/shipit/internal/models"
	appErr "github.com/navin3756/shipit/pkg/errors"
)

// CommissionRate is the platform's share of the technician fee.
const CommissionRate = 0.20

// Duration is a bookable session length.
type Duration string

const (
	Duration15 Duration = "15m"
	Duration30 Duration = "30m"
	Duration45 Duration = "45m"
	Duration60 Duration = "60m"
)

var multipliers = map[Duration]float64{
	Duration15: 0.25,
	Duration30: 0.50,
	Duration45: 0.75,
	Duration60: 1.00,
}

// Multiplier returns the hourly-rate multiplier for d.
func Multiplier(d Duration) (float64, bool) {
	m, ok := multipliers[d]
	return m, ok
}

// ParseDuration validates a raw duration label.
func ParseDuration(s string) (Duration, error) {
	d := Duration(s)
	if _, ok := multipliers[d]; !ok {
		return "", invalidDuration(s)
	}
	return d, nil
}

// HireCost is the price of booking an expert for one session.
type HireCost struct {
	TechnicianFee float64 `json:"technicianFee"`
	PlatformFee   float64 `json:"platformFee"`
	TotalCost     float64 `json:"totalCost"`
}

// ComputeHireCost prices a session. The platform fee is rounded to four
// decimals and the total is rounded half-up to a whole currency unit.
func ComputeHireCost(baseFee, hourlyRate float64, d Duration) (HireCost, error) {
	m, ok := multipliers[d]
	if !ok {
		return HireCost{}, invalidDuration(string(d))
	}
	technicianFee := baseFee + hourlyRate*m
	platformFee := roundTo(technicianFee*CommissionRate, 4)
	return HireCost{
		TechnicianFee: technicianFee,
		PlatformFee:   platformFee,
		TotalCost:     roundHalfUp(technicianFee + platformFee),
	}, nil
}

func invalidDuration(raw string) error {
	return appErr.New(appErr.CodeInvalidDuration, "unsupported booking duration").WithMeta("duration", raw)
}

func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

func roundTo(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Floor(x*p+0.5) / p
}

const (
	// SessionLength is the span over which a live session accrues value.
	SessionLength = 30 * time.Minute
	// DefaultSessionValue is used when a live project carries no booking total.
	DefaultSessionValue = 150.0
)

// ValueDelivered returns the portion of the booking value accrued at now.
// During a live session value accrues linearly until the project is deployed.
func ValueDelivered(p models.Project, now time.Time) float64 {
	deployed := p.Status == models.StatusDeployed
	if p.LiveSessionStart == nil {
		if deployed && p.TotalBookingCost != nil {
			return *p.TotalBookingCost
		}
		return 0
	}

	total := DefaultSessionValue
	if p.TotalBookingCost != nil && *p.TotalBookingCost > 0 {
		total = *p.TotalBookingCost
	}
	if deployed {
		return total
	}

	elapsed := math.Floor(now.Sub(*p.LiveSessionStart).Seconds())
	if elapsed < 0 {
		elapsed = 0
	}
	pct := math.Min(elapsed/SessionLength.Seconds(), 1)
	return total * pct
}
