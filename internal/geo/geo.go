// Package geo decides when to alert a patient to start traveling to the
// hospital. Everything here is a pure function over coordinates and clock
// readings; no shared state.
package geo

import (
	"math"
	"time"
)

const (
	// EarthRadiusKM is the sphere radius used by the haversine formula.
	EarthRadiusKM = 6371.0

	// CityRadiusKM is the distance under which city traffic speed applies.
	CityRadiusKM    = 10.0
	CitySpeedKMH    = 20.0
	HighwaySpeedKMH = 40.0

	// DefaultBufferMinutes is the extra margin added to travel time before
	// advising departure.
	DefaultBufferMinutes = 15
)

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Advice is the call decision for a patient.
type Advice string

const (
	AdviceCallNow Advice = "CALL_NOW"
	AdviceWait    Advice = "WAIT"
)

// Decision explains the travel-time math behind the advice.
type Decision struct {
	Advice             Advice    `json:"advice"`
	DistanceKM         float64   `json:"distance_km"`
	SpeedKMH           float64   `json:"speed_kmh"`
	TravelMinutes      float64   `json:"travel_minutes"`
	BufferMinutes      int       `json:"buffer_minutes"`
	TotalNeededMinutes float64   `json:"total_needed_minutes"`
	MinutesUntilAppt   float64   `json:"minutes_until_appointment"`
	SuggestedDeparture time.Time `json:"suggested_departure"`
}

// Haversine returns the great-circle distance between two points in
// kilometers. It is symmetric in its arguments.
func Haversine(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return EarthRadiusKM * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// ShouldCall decides whether the patient must leave now to make the
// appointment, using the current clock.
func ShouldCall(patient, hospital Point, appointmentAt time.Time, bufferMinutes int) Decision {
	return shouldCallAt(patient, hospital, appointmentAt, bufferMinutes, time.Now())
}

func shouldCallAt(patient, hospital Point, appointmentAt time.Time, bufferMinutes int, now time.Time) Decision {
	if bufferMinutes <= 0 {
		bufferMinutes = DefaultBufferMinutes
	}

	distance := Haversine(patient, hospital)

	speed := HighwaySpeedKMH
	if distance <= CityRadiusKM {
		speed = CitySpeedKMH
	}

	travel := distance / speed * 60
	needed := travel + float64(bufferMinutes)
	until := appointmentAt.Sub(now).Minutes()

	d := Decision{
		Advice:             AdviceWait,
		DistanceKM:         distance,
		SpeedKMH:           speed,
		TravelMinutes:      travel,
		BufferMinutes:      bufferMinutes,
		TotalNeededMinutes: needed,
		MinutesUntilAppt:   until,
		SuggestedDeparture: appointmentAt.Add(-time.Duration(needed * float64(time.Minute))),
	}
	if until <= needed {
		d.Advice = AdviceCallNow
	}
	return d
}
