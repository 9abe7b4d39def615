package fare

import (
	"math"
	"testing"
	"time"

	"github.com/navin3756/shipit/internal/models"
	appErr "github.com/navin3756/shipit/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestComputeHireCostSixtyMinutes(t *testing.T) {
	cost, err := ComputeHireCost(50, 150, Duration60)
	require.NoError(t, err)
	require.Equal(t, 200.0, cost.TechnicianFee)
	require.Equal(t, 40.0, cost.PlatformFee)
	require.Equal(t, 240.0, cost.TotalCost)
}

func TestComputeHireCostAllDurations(t *testing.T) {
	cases := []struct {
		d    Duration
		tech float64
	}{
		{Duration15, 75 + 30},
		{Duration30, 75 + 60},
		{Duration45, 75 + 90},
		{Duration60, 75 + 120},
	}
	for _, tc := range cases {
		t.Run(string(tc.d), func(t *testing.T) {
			cost, err := ComputeHireCost(75, 120, tc.d)
			require.NoError(t, err)
			require.InDelta(t, tc.tech, cost.TechnicianFee, 1e-9)
		})
	}
}

func TestComputeHireCostRounding(t *testing.T) {
	fees := []float64{0, 1, 33.33, 49.99, 50, 75, 99.995, 100}
	rates := []float64{0, 10.01, 120, 150, 180, 333.33}
	for _, base := range fees {
		for _, rate := range rates {
			for d, m := range multipliers {
				cost, err := ComputeHireCost(base, rate, d)
				require.NoError(t, err)

				tech := base + rate*m
				require.Equal(t, tech, cost.TechnicianFee)
				require.Equal(t, math.Floor(tech*0.20*1e4+0.5)/1e4, cost.PlatformFee)
				require.Equal(t, math.Floor(tech+cost.PlatformFee+0.5), cost.TotalCost)
				require.Equal(t, cost.TotalCost, math.Trunc(cost.TotalCost))
			}
		}
	}
}

func TestComputeHireCostHalfUp(t *testing.T) {
	// 0.25 * 2 = 0.5 technician fee, plus 0.1 platform fee -> 0.6 -> 1
	cost, err := ComputeHireCost(0, 2, Duration15)
	require.NoError(t, err)
	require.Equal(t, 1.0, cost.TotalCost)

	// 12.5 technician fee, 2.5 platform fee -> 15 exactly
	cost, err = ComputeHireCost(0, 50, Duration15)
	require.NoError(t, err)
	require.Equal(t, 15.0, cost.TotalCost)
}

func TestComputeHireCostInvalidDuration(t *testing.T) {
	_, err := ComputeHireCost(50, 150, Duration("90m"))
	require.Error(t, err)
	require.True(t, appErr.IsCode(err, appErr.CodeInvalidDuration))

	_, err = ParseDuration("")
	require.True(t, appErr.IsCode(err, appErr.CodeInvalidDuration))

	d, err := ParseDuration("45m")
	require.NoError(t, err)
	require.Equal(t, Duration45, d)
}

func TestValueDelivered(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	start := now.Add(-15 * time.Minute)

	t.Run("no session not deployed", func(t *testing.T) {
		p := models.Project{Status: models.StatusBlueprintReady, TotalBookingCost: models.Float(240)}
		require.Equal(t, 0.0, ValueDelivered(p, now))
	})

	t.Run("no session deployed", func(t *testing.T) {
		p := models.Project{Status: models.StatusDeployed, TotalBookingCost: models.Float(240)}
		require.Equal(t, 240.0, ValueDelivered(p, now))
	})

	t.Run("half way through session", func(t *testing.T) {
		p := models.Project{Status: models.StatusInstalling, TotalBookingCost: models.Float(240), LiveSessionStart: &start}
		require.InDelta(t, 120.0, ValueDelivered(p, now), 1e-9)
	})

	t.Run("default value when unpriced", func(t *testing.T) {
		p := models.Project{Status: models.StatusInstalling, LiveSessionStart: &start}
		require.InDelta(t, 75.0, ValueDelivered(p, now), 1e-9)
	})

	t.Run("caps at full value", func(t *testing.T) {
		early := now.Add(-2 * time.Hour)
		p := models.Project{Status: models.StatusInstalling, TotalBookingCost: models.Float(240), LiveSessionStart: &early}
		require.Equal(t, 240.0, ValueDelivered(p, now))
	})

	t.Run("deployed during session", func(t *testing.T) {
		p := models.Project{Status: models.StatusDeployed, TotalBookingCost: models.Float(240), LiveSessionStart: &start}
		require.Equal(t, 240.0, ValueDelivered(p, now))
	})

	t.Run("clock skew", func(t *testing.T) {
		future := now.Add(time.Minute)
		p := models.Project{Status: models.StatusInstalling, TotalBookingCost: models.Float(240), LiveSessionStart: &future}
		require.Equal(t, 0.0, ValueDelivered(p, now))
	})
}
