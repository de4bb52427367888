package airspace

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/Carmen-Shannon/oxy-tracker/engine/palette"
	"github.com/peterstace/simplefeatures/geom"
)

// ParseGeoJSON reads a GeoJSON FeatureCollection of airspace features. Each feature
// needs a CLASS property and a Polygon or MultiPolygon geometry; the exterior ring of
// the first polygon is used. NAME, LOWER_VAL/LOWER_UOM and UPPER_VAL/UPPER_UOM are
// read when present. Features that do not form a zone are skipped.
//
// Parameters:
//   - r: the GeoJSON document
//
// Returns:
//   - []Zone: the parsed zones
//   - error: on malformed JSON, or ErrNoFeatures when nothing usable was found
func ParseGeoJSON(r io.Reader) ([]Zone, error) {
	var fc geom.GeoJSONFeatureCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, fmt.Errorf("failed to decode airspace geojson: %w", err)
	}

	zones := make([]Zone, 0, len(fc))
	for _, f := range fc {
		z, ok := zoneFromFeature(f)
		if !ok {
			continue
		}
		zones = append(zones, z)
	}
	if len(zones) == 0 {
		return nil, ErrNoFeatures
	}
	return zones, nil
}

func zoneFromFeature(f geom.GeoJSONFeature) (Zone, bool) {
	class, ok := f.Properties["CLASS"].(string)
	if !ok {
		return Zone{}, false
	}
	name, _ := f.Properties["NAME"].(string)
	if name == "" {
		name = "Unknown"
	}
	lowerUnit, _ := f.Properties["LOWER_UOM"].(string)
	upperUnit, _ := f.Properties["UPPER_UOM"].(string)

	z := Zone{
		Name:      name,
		Class:     palette.ParseAirspaceClass(class),
		Ring:      exteriorRing(f.Geometry),
		FloorFt:   ParseAltitude(f.Properties["LOWER_VAL"], lowerUnit),
		CeilingFt: ParseAltitude(f.Properties["UPPER_VAL"], upperUnit),
	}
	return z, z.Valid()
}

func exteriorRing(g geom.Geometry) [][2]float64 {
	var poly geom.Polygon
	switch g.Type() {
	case geom.TypePolygon:
		poly, _ = g.AsPolygon()
	case geom.TypeMultiPolygon:
		mp, _ := g.AsMultiPolygon()
		if mp.NumPolygons() == 0 {
			return nil
		}
		poly = mp.PolygonN(0)
	default:
		return nil
	}
	if poly.IsEmpty() {
		return nil
	}

	seq := poly.ExteriorRing().Coordinates()
	n := seq.Length()
	if n > 1 && seq.GetXY(0) == seq.GetXY(n-1) {
		n--
	}
	ring := make([][2]float64, n)
	for i := range n {
		xy := seq.GetXY(i)
		ring[i] = [2]float64{xy.X, xy.Y}
	}
	return ring
}
