package main

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-tracker/engine/geo"
	"github.com/Carmen-Shannon/oxy-tracker/engine/track"
)

// fleetTemplates are the identities cycled through by the simulator.
var fleetTemplates = []track.Descriptor{
	{TypeCode: "B738", Emitter: "A3", Callsign: "ASA"},
	{TypeCode: "B77W", Emitter: "A5", Callsign: "UAE"},
	{TypeCode: "R44", Emitter: "A7", Callsign: "LIFE"},
	{TypeCode: "C172", Emitter: "A1", Callsign: "N"},
	{TypeCode: "C17", Callsign: "RCH", DBFlags: 1},
	{TypeCode: "A320", Emitter: "A3", Callsign: "DAL"},
}

type simAircraft struct {
	id        string
	callsign  string
	category  track.Category
	lat, lon  float64 // circle center
	radiusDeg float64
	phase     float64
	rate      float64 // radians per second, negative turns clockwise
	altitude  float32
	speed     float32
}

// simulator flies aircraft on circles around the projection center.
type simulator struct {
	mu    sync.Mutex
	proj  *geo.Projection
	fleet []simAircraft
	start time.Time
	now   func() time.Time
}

func newSimulator(proj *geo.Projection, n int, seed uint64) *simulator {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	lat0, lon0 := proj.Center()
	s := &simulator{proj: proj, start: time.Now(), now: time.Now}
	for i := range n {
		tmpl := fleetTemplates[i%len(fleetTemplates)]
		d := tmpl
		d.Callsign = fmt.Sprintf("%s%d", tmpl.Callsign, 100+i)
		d.Altitude = float32(500 + rng.IntN(40000))
		d.Speed = float32(90 + rng.IntN(400))
		rate := 0.02 + rng.Float64()*0.1
		if rng.IntN(2) == 0 {
			rate = -rate
		}
		s.fleet = append(s.fleet, simAircraft{
			id:        fmt.Sprintf("%06x", 0xa00000+i),
			callsign:  d.Callsign,
			category:  track.Classify(d),
			lat:       lat0 + (rng.Float64()-0.5)*0.6,
			lon:       lon0 + (rng.Float64()-0.5)*0.8,
			radiusDeg: 0.02 + rng.Float64()*0.1,
			phase:     rng.Float64() * 2 * math.Pi,
			rate:      rate,
			altitude:  d.Altitude,
			speed:     d.Speed,
		})
	}
	return s
}

func (s *simulator) Snapshot(ctx context.Context) (track.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return track.Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.now().Sub(s.start).Seconds()
	entities := make([]track.Entity, len(s.fleet))
	for i, a := range s.fleet {
		theta := a.phase + a.rate*t
		cosLat := math.Cos(a.lat * math.Pi / 180)
		lat := a.lat + a.radiusDeg*math.Sin(theta)
		lon := a.lon + a.radiusDeg*math.Cos(theta)/cosLat

		// velocity direction in east/north components
		east, north := -math.Sin(theta)*a.rate, math.Cos(theta)*a.rate
		entities[i] = track.Entity{
			ID:       a.id,
			Callsign: a.callsign,
			Position: s.proj.WorldPosition(lon, lat, a.altitude),
			Heading:  float32(math.Atan2(east, north)),
			Altitude: a.altitude,
			Speed:    a.speed,
			Category: a.category,
		}
	}
	selected := ""
	if len(entities) > 0 {
		selected = entities[0].ID
	}
	return track.NewSnapshot(entities, selected), nil
}
