package services

import (
	"sort"

	"github.com/cargolink/fulfillment-backend/internal/models"
	"github.com/cargolink/fulfillment-backend/pkg/geo"
)

// NodeIndexService answers nearest-transfer-node queries over the static
// catalog. The catalog is a few hundred nodes at most, so each query is a
// linear scan; a spatial index can replace the scan later without
// changing the contract.
type NodeIndexService struct {
	nodes []models.TransferNode
}

// NewNodeIndexService creates a node index over the given catalog.
func NewNodeIndexService(nodes []models.TransferNode) *NodeIndexService {
	return &NodeIndexService{nodes: nodes}
}

// NearestNodes returns the catalog nodes of the given mode ordered by
// ascending great-circle distance from the query point. The result length
// is min(limit, matching catalog size).
func (s *NodeIndexService) NearestNodes(p geo.Point, mode models.TransportMode, limit int) ([]models.NodeDistance, error) {
	if err := p.Validate(); err != nil {
		return nil, models.ErrInvalidInput("invalid query point: " + err.Error())
	}
	if limit <= 0 {
		return nil, models.ErrInvalidInput("limit must be positive")
	}

	matches := make([]models.NodeDistance, 0, len(s.nodes))
	for _, node := range s.nodes {
		if node.Mode != mode {
			continue
		}
		matches = append(matches, models.NodeDistance{
			Node:           node,
			DistanceMeters: geo.Haversine(p, node.Point),
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].DistanceMeters != matches[j].DistanceMeters {
			return matches[i].DistanceMeters < matches[j].DistanceMeters
		}
		// Equal distances fall back to code order so results are stable.
		return matches[i].Node.Code < matches[j].Node.Code
	})

	if limit < len(matches) {
		matches = matches[:limit]
	}
	return matches, nil
}

// DefaultTransferNodes returns the built-in transfer node catalog covering
// the major Indian freight corridors served today.
func DefaultTransferNodes() []models.TransferNode {
	return []models.TransferNode{
		// Airports
		{Code: "BOM", Name: "Chhatrapati Shivaji Maharaj International", Mode: models.ModeAir, Point: geo.Point{Lat: 19.0896, Lon: 72.8656}},
		{Code: "DEL", Name: "Indira Gandhi International", Mode: models.ModeAir, Point: geo.Point{Lat: 28.5562, Lon: 77.1000}},
		{Code: "MAA", Name: "Chennai International", Mode: models.ModeAir, Point: geo.Point{Lat: 12.9941, Lon: 80.1709}},
		{Code: "BLR", Name: "Kempegowda International", Mode: models.ModeAir, Point: geo.Point{Lat: 13.1986, Lon: 77.7066}},
		{Code: "CCU", Name: "Netaji Subhas Chandra Bose International", Mode: models.ModeAir, Point: geo.Point{Lat: 22.6547, Lon: 88.4467}},
		{Code: "HYD", Name: "Rajiv Gandhi International", Mode: models.ModeAir, Point: geo.Point{Lat: 17.2403, Lon: 78.4294}},
		{Code: "AMD", Name: "Sardar Vallabhbhai Patel International", Mode: models.ModeAir, Point: geo.Point{Lat: 23.0772, Lon: 72.6347}},
		{Code: "PNQ", Name: "Pune Airport", Mode: models.ModeAir, Point: geo.Point{Lat: 18.5793, Lon: 73.9089}},
		{Code: "JAI", Name: "Jaipur International", Mode: models.ModeAir, Point: geo.Point{Lat: 26.8242, Lon: 75.8122}},
		{Code: "NAG", Name: "Dr. Babasaheb Ambedkar International", Mode: models.ModeAir, Point: geo.Point{Lat: 21.0922, Lon: 79.0472}},
		{Code: "COK", Name: "Cochin International", Mode: models.ModeAir, Point: geo.Point{Lat: 10.1520, Lon: 76.4019}},
		{Code: "GOI", Name: "Goa Dabolim", Mode: models.ModeAir, Point: geo.Point{Lat: 15.3808, Lon: 73.8314}},

		// Rail stations
		{Code: "CSMT", Name: "Mumbai CSMT", Mode: models.ModeRail, Point: geo.Point{Lat: 18.9398, Lon: 72.8355}},
		{Code: "NDLS", Name: "New Delhi", Mode: models.ModeRail, Point: geo.Point{Lat: 28.6430, Lon: 77.2194}},
		{Code: "MAS", Name: "Chennai Central", Mode: models.ModeRail, Point: geo.Point{Lat: 13.0827, Lon: 80.2757}},
		{Code: "SBC", Name: "KSR Bengaluru City", Mode: models.ModeRail, Point: geo.Point{Lat: 12.9763, Lon: 77.5619}},
		{Code: "HWH", Name: "Howrah Junction", Mode: models.ModeRail, Point: geo.Point{Lat: 22.5850, Lon: 88.3425}},
		{Code: "SC", Name: "Secunderabad Junction", Mode: models.ModeRail, Point: geo.Point{Lat: 17.4344, Lon: 78.5013}},
		{Code: "ADI", Name: "Ahmedabad Junction", Mode: models.ModeRail, Point: geo.Point{Lat: 23.0256, Lon: 72.6011}},
		{Code: "PUNE", Name: "Pune Junction", Mode: models.ModeRail, Point: geo.Point{Lat: 18.5289, Lon: 73.8744}},
		{Code: "JP", Name: "Jaipur Junction", Mode: models.ModeRail, Point: geo.Point{Lat: 26.9196, Lon: 75.7880}},
		{Code: "NGP", Name: "Nagpur Junction", Mode: models.ModeRail, Point: geo.Point{Lat: 21.1513, Lon: 79.0886}},
		{Code: "ERS", Name: "Ernakulam Junction", Mode: models.ModeRail, Point: geo.Point{Lat: 9.9680, Lon: 76.2892}},
		{Code: "MAO", Name: "Madgaon Junction", Mode: models.ModeRail, Point: geo.Point{Lat: 15.2713, Lon: 73.9800}},
	}
}
