package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carewave/opd-queue-engine/internal/queue"
)

func newTestServer(t *testing.T) (*httptest.Server, *queue.Engine) {
	t.Helper()
	eng := queue.New(queue.Config{}, nil)
	t.Cleanup(eng.Close)

	srv := httptest.NewServer(NewRouter(RouterConfig{
		Engine:           eng,
		GeoBufferMinutes: 15,
		Env:              "test",
		Version:          "test",
		Logger:           zerolog.Nop(),
	}))
	t.Cleanup(srv.Close)
	return srv, eng
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestBookEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	doctor := uuid.New()

	resp := postJSON(t, srv.URL+"/appointments", BookRequest{
		PatientName: "Asha Rao",
		DoctorID:    doctor.String(),
		Time:        time.Now().Add(time.Hour).Format(time.RFC3339),
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	got := decode[AppointmentResponse](t, resp)
	if got.Token != 1 || got.Serial != 1 {
		t.Errorf("token/serial = %d/%d, want 1/1", got.Token, got.Serial)
	}
	if got.Status != string(queue.StatusScheduled) {
		t.Errorf("status = %s", got.Status)
	}
}

func TestBookEndpoint_BadRequests(t *testing.T) {
	srv, _ := newTestServer(t)

	cases := []struct {
		name string
		req  BookRequest
	}{
		{"missing name", BookRequest{DoctorID: uuid.NewString(), Time: time.Now().Format(time.RFC3339)}},
		{"bad doctor id", BookRequest{PatientName: "x", DoctorID: "not-a-uuid", Time: time.Now().Format(time.RFC3339)}},
		{"bad time", BookRequest{PatientName: "x", DoctorID: uuid.NewString(), Time: "tomorrow"}},
	}
	for _, tc := range cases {
		resp := postJSON(t, srv.URL+"/appointments", tc.req)
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", tc.name, resp.StatusCode)
		}
	}
}

func TestWalkInEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/walk-ins", WalkInRequest{
		PatientName: "Walk In",
		DoctorID:    uuid.NewString(),
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	got := decode[AppointmentResponse](t, resp)
	if got.Status != string(queue.StatusCheckedIn) {
		t.Errorf("walk-in status = %s, want checked_in", got.Status)
	}
	if got.Kind != string(queue.KindWalkIn) {
		t.Errorf("kind = %s", got.Kind)
	}
}

func TestEmergencyEndpoint(t *testing.T) {
	srv, eng := newTestServer(t)
	doctor := uuid.New()

	for i := 0; i < 2; i++ {
		if _, err := eng.Book(context.Background(), queue.Patient{ID: uuid.New(), Name: fmt.Sprintf("p%d", i)}, doctor, time.Now()); err != nil {
			t.Fatal(err)
		}
	}

	resp := postJSON(t, srv.URL+"/emergencies", EmergencyRequest{
		PatientName: "Critical",
		DoctorID:    doctor.String(),
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	got := decode[EmergencyResponse](t, resp)
	if got.Appointment.Serial != 1 {
		t.Errorf("emergency serial = %d, want 1 with nobody in progress", got.Appointment.Serial)
	}
	if len(got.Displaced) != 2 {
		t.Errorf("displaced = %d, want 2", len(got.Displaced))
	}
}

func TestStatusEndpoint_UnknownToken(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/appointments/999/status")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	got := decode[ErrorResponse](t, resp)
	if got.Error != "unknown_token" {
		t.Errorf("error code = %s", got.Error)
	}
}

func TestStatusEndpoint_BadToken(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/appointments/abc/status")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestConsultationFlow(t *testing.T) {
	srv, eng := newTestServer(t)
	doctor := uuid.New()

	res, err := eng.Book(context.Background(), queue.Patient{ID: uuid.New(), Name: "flow"}, doctor, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	token := res.Appointment.Token
	base := fmt.Sprintf("%s/appointments/%d", srv.URL, token)

	// Starting before check-in is a transition conflict.
	resp := postJSON(t, base+"/start", struct{}{})
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("start before check-in: status = %d, want 409", resp.StatusCode)
	}

	resp = postJSON(t, base+"/check-in", struct{}{})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("check-in: status = %d", resp.StatusCode)
	}

	resp = postJSON(t, base+"/start", struct{}{})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start: status = %d", resp.StatusCode)
	}
	started := decode[AppointmentResponse](t, resp)
	if started.Status != string(queue.StatusInProgress) {
		t.Errorf("status after start = %s", started.Status)
	}

	resp = postJSON(t, base+"/complete", struct{}{})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("complete: status = %d", resp.StatusCode)
	}
	done := decode[AppointmentResponse](t, resp)
	if done.Status != string(queue.StatusCompleted) {
		t.Errorf("status after complete = %s", done.Status)
	}
}

func TestDelayEndpoint(t *testing.T) {
	srv, eng := newTestServer(t)
	doctor := uuid.New()

	if _, err := eng.Book(context.Background(), queue.Patient{ID: uuid.New(), Name: "p"}, doctor, time.Now().Add(time.Hour)); err != nil {
		t.Fatal(err)
	}

	url := fmt.Sprintf("%s/doctors/%s/delay", srv.URL, doctor)
	resp := postJSON(t, url, DelayRequest{Minutes: 20, Reason: "emergency surgery"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	got := decode[DelayResponse](t, resp)
	if len(got.Shifted) != 1 {
		t.Fatalf("shifted = %d, want 1", len(got.Shifted))
	}
	if push := got.Shifted[0].NewTime.Sub(got.Shifted[0].OldTime); push != 20*time.Minute {
		t.Errorf("pushed by %s, want 20m", push)
	}

	resp = postJSON(t, url, DelayRequest{Minutes: 0})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("zero minutes: status = %d, want 400", resp.StatusCode)
	}
}

func TestTravelCheckEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/travel-check", TravelCheckRequest{
		PatientLat:      12.9896,
		PatientLng:      77.5946,
		HospitalLat:     12.9716,
		HospitalLng:     77.5946,
		AppointmentTime: time.Now().Add(10 * time.Minute).Format(time.RFC3339),
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	defer resp.Body.Close()
	var got struct {
		Advice        string `json:"advice"`
		BufferMinutes int    `json:"buffer_minutes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Advice != "CALL_NOW" {
		t.Errorf("advice = %s, want CALL_NOW 10 minutes out", got.Advice)
	}
	if got.BufferMinutes != 15 {
		t.Errorf("buffer = %d, want 15", got.BufferMinutes)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/health/live", "/health/ready"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", path, resp.StatusCode)
		}
	}
}
