package model

import "math"

// Field holds the playing field dimensions in meters. Our goal is centered
// on (0, 0); theirs on (0, Length).
type Field struct {
	Length       float64 `json:"length" mapstructure:"length"`
	Width        float64 `json:"width" mapstructure:"width"`
	Border       float64 `json:"border" mapstructure:"border"`
	GoalWidth    float64 `json:"goalWidth" mapstructure:"goal_width"`
	GoalDepth    float64 `json:"goalDepth" mapstructure:"goal_depth"`
	PenaltyDist  float64 `json:"penaltyDist" mapstructure:"penalty_dist"`
	ArcRadius    float64 `json:"arcRadius" mapstructure:"arc_radius"`
	CenterRadius float64 `json:"centerRadius" mapstructure:"center_radius"`
}

// DefaultField returns the single-size SSL field.
func DefaultField() Field {
	return Field{
		Length:       9.0,
		Width:        6.0,
		Border:       0.7,
		GoalWidth:    1.0,
		GoalDepth:    0.18,
		PenaltyDist:  1.0,
		ArcRadius:    1.0,
		CenterRadius: 0.5,
	}
}

// Contains reports whether p lies on the playing surface (border excluded).
func (f Field) Contains(p Point) bool {
	return math.Abs(p.X) <= f.Width/2 && p.Y >= 0 && p.Y <= f.Length
}

func (f Field) OurGoal() Point     { return Point{0, 0} }
func (f Field) TheirGoal() Point   { return Point{0, f.Length} }
func (f Field) CenterPoint() Point { return Point{0, f.Length / 2} }

// InOurHalf reports whether p is on our side of the center line.
func (f Field) InOurHalf(p Point) bool { return p.Y < f.Length/2 }

// InOurDefenseArea approximates the defense area as the union of the two
// goal-post arcs and the flat between them.
func (f Field) InOurDefenseArea(p Point) bool {
	half := f.GoalWidth / 2
	if p.Y < 0 || p.Y > f.ArcRadius {
		return false
	}
	if math.Abs(p.X) <= half {
		return true
	}
	post := Point{math.Copysign(half, p.X), 0}
	return p.Near(post, f.ArcRadius)
}

func (f Field) Valid() bool {
	return f.Length > 0 && f.Width > 0 && f.GoalWidth > 0 && f.GoalWidth < f.Width
}
