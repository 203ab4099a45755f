package mapper

// Calibration presets. The tables are fixed policy; changing a breakpoint
// changes every downstream score.
var (
	// Shots maps total shots to 0–12.
	Shots = MustPiecewise([]Range{
		{Min: 0, Max: 5, OutMin: 0, OutMax: 3},
		{Min: 5, Max: 15, OutMin: 3, OutMax: 8},
		{Min: 15, Max: 25, OutMin: 8, OutMax: 12},
	})

	// ShotsOnTarget maps shots on target to 0–8.
	ShotsOnTarget = MustPiecewise([]Range{
		{Min: 0, Max: 3, OutMin: 0, OutMax: 3},
		{Min: 3, Max: 6, OutMin: 3, OutMax: 6},
		{Min: 6, Max: 10, OutMin: 6, OutMax: 8},
	})

	// ShotAccuracy maps the on-target ratio (0–1) to 0–6.
	ShotAccuracy = MustPiecewise([]Range{
		{Min: 0, Max: 0.25, OutMin: 0, OutMax: 2},
		{Min: 0.25, Max: 0.4, OutMin: 2, OutMax: 4},
		{Min: 0.4, Max: 0.6, OutMin: 4, OutMax: 6},
	})

	// XGTotal maps combined expected goals to 0–10.
	XGTotal = MustPiecewise([]Range{
		{Min: 0, Max: 1, OutMin: 0, OutMax: 3},
		{Min: 1, Max: 2, OutMin: 3, OutMax: 6.5},
		{Min: 2, Max: 3.5, OutMin: 6.5, OutMax: 10},
	})

	// XGLast15 maps expected goals of the last 15 minutes to 0–8.
	XGLast15 = MustPiecewise([]Range{
		{Min: 0, Max: 0.3, OutMin: 0, OutMax: 2},
		{Min: 0.3, Max: 0.7, OutMin: 2, OutMax: 5},
		{Min: 0.7, Max: 1.2, OutMin: 5, OutMax: 8},
	})

	// XGDebt maps xG minus goals scored to 0–8. Negative debt scores 0.
	XGDebt = MustPiecewise([]Range{
		{Min: 0, Max: 0.5, OutMin: 0, OutMax: 1},
		{Min: 0.5, Max: 1.5, OutMin: 1, OutMax: 4},
		{Min: 1.5, Max: 3, OutMin: 4, OutMax: 8},
	})

	// RecentShots maps shots of the last 15 minutes to 0–10.
	RecentShots = MustPiecewise([]Range{
		{Min: 0, Max: 2, OutMin: 0, OutMax: 2},
		{Min: 2, Max: 5, OutMin: 2, OutMax: 6},
		{Min: 5, Max: 8, OutMin: 6, OutMax: 10},
	})

	// XGVelocity maps the per-90 xG pace to 0–8.
	XGVelocity = MustPiecewise([]Range{
		{Min: 0, Max: 1, OutMin: 0, OutMax: 2},
		{Min: 1, Max: 2.5, OutMin: 2, OutMax: 5},
		{Min: 2.5, Max: 4, OutMin: 5, OutMax: 8},
	})

	// Corners maps corner count to 0–6.
	Corners = MustPiecewise([]Range{
		{Min: 0, Max: 4, OutMin: 0, OutMax: 2},
		{Min: 4, Max: 8, OutMin: 2, OutMax: 4},
		{Min: 8, Max: 12, OutMin: 4, OutMax: 6},
	})
)

// Presets lists the calibration mappers by name.
func Presets() map[string]*Piecewise {
	return map[string]*Piecewise{
		"shots":           Shots,
		"shots_on_target": ShotsOnTarget,
		"shot_accuracy":   ShotAccuracy,
		"xg_total":        XGTotal,
		"xg_last_15":      XGLast15,
		"xg_debt":         XGDebt,
		"recent_shots":    RecentShots,
		"xg_velocity":     XGVelocity,
		"corners":         Corners,
	}
}
