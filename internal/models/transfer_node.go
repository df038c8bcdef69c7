package models

import "github.com/cargolink/fulfillment-backend/pkg/geo"

// TransportMode identifies how a leg of an itinerary moves.
type TransportMode string

const (
	ModeGround TransportMode = "ground"
	ModeRail   TransportMode = "rail"
	ModeAir    TransportMode = "air"
)

// IsValid reports whether the mode is one of the supported transport modes.
func (m TransportMode) IsValid() bool {
	switch m {
	case ModeGround, ModeRail, ModeAir:
		return true
	}
	return false
}

// TransferNode is a named physical transfer location (a rail station or an
// airport) loaded from the static catalog. Nodes are immutable at runtime.
type TransferNode struct {
	Code string        `json:"code"`
	Name string        `json:"name"`
	Mode TransportMode `json:"mode"`
	Point geo.Point    `json:"point"`
}

// NodeDistance pairs a transfer node with its great-circle distance from a
// query point.
type NodeDistance struct {
	Node           TransferNode `json:"node"`
	DistanceMeters float64      `json:"distance_meters"`
}
