package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/carewave/opd-queue-engine/internal/queue"
)

type BookRequest struct {
	PatientName  string `json:"patient_name"`
	PatientPhone string `json:"patient_phone,omitempty"`
	DoctorID     string `json:"doctor_id"`
	Time         string `json:"time"` // RFC3339
}

type WalkInRequest struct {
	PatientName  string `json:"patient_name"`
	PatientPhone string `json:"patient_phone,omitempty"`
	DoctorID     string `json:"doctor_id"`
	Time         string `json:"time,omitempty"` // RFC3339, defaults to now
}

type EmergencyRequest struct {
	PatientName  string `json:"patient_name"`
	PatientPhone string `json:"patient_phone,omitempty"`
	DoctorID     string `json:"doctor_id"`
}

type DelayRequest struct {
	Minutes int    `json:"minutes"`
	Reason  string `json:"reason,omitempty"`
}

type TravelCheckRequest struct {
	PatientLat      float64 `json:"patient_lat"`
	PatientLng      float64 `json:"patient_lng"`
	HospitalLat     float64 `json:"hospital_lat"`
	HospitalLng     float64 `json:"hospital_lng"`
	AppointmentTime string  `json:"appointment_time"` // RFC3339
}

type AppointmentResponse struct {
	Token             int64     `json:"token"`
	Serial            int       `json:"serial"`
	DoctorID          uuid.UUID `json:"doctor_id"`
	PatientName       string    `json:"patient_name"`
	Kind              string    `json:"kind"`
	Status            string    `json:"status"`
	ScheduledTime     time.Time `json:"scheduled_time"`
	EstimatedDuration int       `json:"estimated_duration_minutes"`
}

type EmergencyResponse struct {
	Appointment AppointmentResponse  `json:"appointment"`
	Displaced   []queue.SerialChange `json:"displaced,omitempty"`
}

type NoShowResponse struct {
	Token         int64                `json:"token"`
	TimeSaved     int                  `json:"time_saved_minutes"`
	PulledForward []queue.SerialChange `json:"pulled_forward,omitempty"`
}

type DelayResponse struct {
	DoctorID uuid.UUID            `json:"doctor_id"`
	Shifted  []queue.ShiftedEntry `json:"shifted,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toAppointmentResponse(a queue.Appointment) AppointmentResponse {
	return AppointmentResponse{
		Token:             a.Token,
		Serial:            a.Serial,
		DoctorID:          a.DoctorID,
		PatientName:       a.Patient.Name,
		Kind:              string(a.Kind),
		Status:            string(a.Status),
		ScheduledTime:     a.ScheduledTime,
		EstimatedDuration: a.EstimatedDuration,
	}
}
