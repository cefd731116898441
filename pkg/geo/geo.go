package geo

import (
	"math"

	"anukritich/nivaran/pkg/datastructure"

	"github.com/golang/geo/s2"
)

const earthRadiusM = 6371000.0

func degreeToRadians(angle float64) float64 {
	return angle * (math.Pi / 180.0)
}

func havFunction(angleRad float64) float64 {
	return (1 - math.Cos(angleRad)) / 2.0
}

// HaversineMeters is the great-circle distance in meters between two coordinates.
func HaversineMeters(one, two datastructure.Coordinate) float64 {
	latOne := degreeToRadians(one.Lat)
	latTwo := degreeToRadians(two.Lat)

	havLat := havFunction(latTwo - latOne)
	havLon := havFunction(degreeToRadians(two.Lon - one.Lon))

	havCentralAngle := havLat + math.Cos(latOne)*math.Cos(latTwo)*havLon
	centralAngleRad := 2.0 * math.Asin(math.Sqrt(havCentralAngle))
	return earthRadiusM * centralAngleRad
}

//	φ1,λ1 is the start point, φ2,λ2 the end point
//
// https://www.movable-type.co.uk/scripts/latlong.html
func Bearing(from, to datastructure.Coordinate) float64 {
	p1LatRad := degreeToRadians(from.Lat)
	p2LatRad := degreeToRadians(to.Lat)

	diffLon := degreeToRadians(to.Lon - from.Lon)

	y := math.Sin(diffLon) * math.Cos(p2LatRad)
	x := math.Cos(p1LatRad)*math.Sin(p2LatRad) - math.Sin(p1LatRad)*math.Cos(p2LatRad)*math.Cos(diffLon)
	theta := math.Atan2(y, x)

	return math.Mod((theta*180/math.Pi)+360, 360)
}

// Bounds returns the south-west and north-east corners of the rectangle
// enclosing coords, for fitting a map viewport around a rendered route.
func Bounds(coords []datastructure.Coordinate) (sw, ne datastructure.Coordinate, ok bool) {
	if len(coords) == 0 {
		return datastructure.Coordinate{}, datastructure.Coordinate{}, false
	}
	rect := s2.EmptyRect()
	for _, c := range coords {
		rect = rect.AddPoint(s2.LatLngFromDegrees(c.Lat, c.Lon))
	}
	sw = datastructure.NewCoordinate(rect.Lo().Lat.Degrees(), rect.Lo().Lng.Degrees())
	ne = datastructure.NewCoordinate(rect.Hi().Lat.Degrees(), rect.Hi().Lng.Degrees())
	return sw, ne, true
}
