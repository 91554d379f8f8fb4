package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/carewave/opd-queue-engine/internal/geo"
	"github.com/carewave/opd-queue-engine/internal/locking"
	"github.com/carewave/opd-queue-engine/internal/queue"
)

func bookHandler(eng *queue.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		doctorID, patient, ok := parseBooking(w, req.PatientName, req.PatientPhone, req.DoctorID)
		if !ok {
			return
		}
		at, err := time.Parse(time.RFC3339, req.Time)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_time", "time must be RFC3339")
			return
		}

		res, err := eng.Book(r.Context(), patient, doctorID, at)
		if err != nil {
			handleEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toAppointmentResponse(res.Appointment))
	}
}

func walkInHandler(eng *queue.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req WalkInRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		doctorID, patient, ok := parseBooking(w, req.PatientName, req.PatientPhone, req.DoctorID)
		if !ok {
			return
		}
		patient.Registered = false

		var at time.Time
		if req.Time != "" {
			parsed, err := time.Parse(time.RFC3339, req.Time)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_time", "time must be RFC3339")
				return
			}
			at = parsed
		}

		res, err := eng.WalkIn(r.Context(), patient, doctorID, at)
		if err != nil {
			handleEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toAppointmentResponse(res.Appointment))
	}
}

func followUpHandler(eng *queue.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		doctorID, patient, ok := parseBooking(w, req.PatientName, req.PatientPhone, req.DoctorID)
		if !ok {
			return
		}
		at, err := time.Parse(time.RFC3339, req.Time)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_time", "time must be RFC3339")
			return
		}

		res, err := eng.FollowUp(r.Context(), patient, doctorID, at)
		if err != nil {
			handleEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toAppointmentResponse(res.Appointment))
	}
}

func emergencyHandler(eng *queue.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req EmergencyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		doctorID, patient, ok := parseBooking(w, req.PatientName, req.PatientPhone, req.DoctorID)
		if !ok {
			return
		}

		res, err := eng.InsertEmergency(patient, doctorID)
		if err != nil {
			handleEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, EmergencyResponse{
			Appointment: toAppointmentResponse(res.Appointment),
			Displaced:   res.Displaced,
		})
	}
}

func capacityHandler(eng *queue.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, ok := parseDoctorID(w, r)
		if !ok {
			return
		}
		slot, err := time.Parse(time.RFC3339, r.URL.Query().Get("slot"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_slot", "slot must be RFC3339")
			return
		}
		writeJSON(w, http.StatusOK, eng.CheckCapacity(doctorID, slot))
	}
}

func statusHandler(eng *queue.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := parseToken(w, r)
		if !ok {
			return
		}
		st, err := eng.Status(token)
		if err != nil {
			handleEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

func etaHandler(eng *queue.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := parseToken(w, r)
		if !ok {
			return
		}
		eta, err := eng.EstimateWait(token)
		if err != nil {
			handleEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, eta)
	}
}

func mobileStatusHandler(eng *queue.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := parseToken(w, r)
		if !ok {
			return
		}
		ms, err := eng.MobileStatus(token)
		if err != nil {
			handleEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ms)
	}
}

func delayHandler(eng *queue.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, ok := parseDoctorID(w, r)
		if !ok {
			return
		}
		var req DelayRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.Minutes <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_minutes", "minutes must be positive")
			return
		}

		shifted, err := eng.ShiftForDelay(doctorID, req.Minutes, req.Reason)
		if err != nil {
			handleEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, DelayResponse{DoctorID: doctorID, Shifted: shifted})
	}
}

func cancelBreakHandler(eng *queue.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, ok := parseDoctorID(w, r)
		if !ok {
			return
		}
		eng.CancelBreak(doctorID)
		writeJSON(w, http.StatusOK, eng.Fatigue(doctorID))
	}
}

func checkInHandler(eng *queue.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := parseToken(w, r)
		if !ok {
			return
		}
		appt, err := eng.CheckIn(token)
		if err != nil {
			handleEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func noShowHandler(eng *queue.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := parseToken(w, r)
		if !ok {
			return
		}
		res, err := eng.MarkNoShow(token)
		if err != nil {
			handleEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, NoShowResponse{
			Token:         res.Appointment.Token,
			TimeSaved:     res.TimeSaved,
			PulledForward: res.PulledForward,
		})
	}
}

func startConsultationHandler(eng *queue.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := parseToken(w, r)
		if !ok {
			return
		}
		appt, err := eng.StartConsultation(token)
		if err != nil {
			handleEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func endConsultationHandler(eng *queue.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := parseToken(w, r)
		if !ok {
			return
		}
		appt, err := eng.EndConsultation(token)
		if err != nil {
			handleEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func balanceHandler(eng *queue.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deptID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_department_id", "id must be a valid UUID")
			return
		}

		var doctorIDs []uuid.UUID
		for _, raw := range strings.Split(r.URL.Query().Get("doctors"), ",") {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			id, err := uuid.Parse(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctors must be comma-separated UUIDs")
				return
			}
			doctorIDs = append(doctorIDs, id)
		}

		writeJSON(w, http.StatusOK, eng.Balance(deptID, doctorIDs))
	}
}

func travelCheckHandler(bufferMinutes int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TravelCheckRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		at, err := time.Parse(time.RFC3339, req.AppointmentTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_time", "appointment_time must be RFC3339")
			return
		}

		decision := geo.ShouldCall(
			geo.Point{Lat: req.PatientLat, Lng: req.PatientLng},
			geo.Point{Lat: req.HospitalLat, Lng: req.HospitalLng},
			at,
			bufferMinutes,
		)
		writeJSON(w, http.StatusOK, decision)
	}
}

func parseBooking(w http.ResponseWriter, name, phone, doctorID string) (uuid.UUID, queue.Patient, bool) {
	if name == "" {
		writeError(w, http.StatusBadRequest, "missing_patient_name", "patient_name is required")
		return uuid.Nil, queue.Patient{}, false
	}
	id, err := uuid.Parse(doctorID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
		return uuid.Nil, queue.Patient{}, false
	}
	return id, queue.Patient{
		ID:         uuid.New(),
		Name:       name,
		Phone:      phone,
		Registered: true,
	}, true
}

func parseDoctorID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func parseToken(w http.ResponseWriter, r *http.Request) (int64, bool) {
	token, err := strconv.ParseInt(chi.URLParam(r, "token"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_token", "token must be an integer")
		return 0, false
	}
	return token, true
}

func handleEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, queue.ErrUnknownToken):
		writeError(w, http.StatusNotFound, "unknown_token", err.Error())
	case errors.Is(err, queue.ErrUnknownDoctor):
		writeError(w, http.StatusNotFound, "unknown_doctor", err.Error())
	case errors.Is(err, queue.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	case errors.Is(err, queue.ErrConsultationActive):
		writeError(w, http.StatusConflict, "consultation_in_progress", err.Error())
	case errors.Is(err, locking.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "slot_being_booked", "slot is currently being booked, please retry shortly")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}
