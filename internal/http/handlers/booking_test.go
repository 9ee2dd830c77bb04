package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/empirecuts-booking/internal/booking"
	"github.com/wolfman30/empirecuts-booking/internal/calendar"
	"github.com/wolfman30/empirecuts-booking/internal/notify"
	"github.com/wolfman30/empirecuts-booking/internal/payments"
	"github.com/wolfman30/empirecuts-booking/internal/session"
	"github.com/wolfman30/empirecuts-booking/internal/wizard"
)

type receiver struct {
	mu     sync.Mutex
	status int
	bodies []map[string]any
}

func (rc *receiver) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.bodies = append(rc.bodies, body)
	w.WriteHeader(rc.status)
}

func (rc *receiver) setStatus(status int) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.status = status
}

type bookingAPI struct {
	t        *testing.T
	server   *httptest.Server
	receiver *receiver
}

func newBookingAPI(t *testing.T, paymentsEnabled bool) *bookingAPI {
	t.Helper()
	rc := &receiver{status: http.StatusOK}
	hook := httptest.NewServer(rc)
	t.Cleanup(hook.Close)

	now := time.Date(2025, 5, 30, 12, 0, 0, 0, time.UTC)
	manager := session.NewManager(session.NewMemoryStore(time.Hour), booking.Options{
		PaymentsEnabled: paymentsEnabled,
		Notifier:        notify.NewWebhookNotifier(hook.URL, time.Second, nil),
		Tokenizer:       payments.NewFakeTokenizer(nil),
		Calendar:        calendar.NewGenerator(calendar.Options{Location: time.UTC, Now: func() time.Time { return now }}),
	})
	h := NewBookingHandler(manager, "pk_test_123", nil)

	r := chi.NewRouter()
	r.Route("/api", h.Routes)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &bookingAPI{t: t, server: srv, receiver: rc}
}

func (a *bookingAPI) do(method, path string, body any) (*http.Response, []byte) {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(a.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	return resp, data
}

func (a *bookingAPI) view(method, path string, body any, wantStatus int) ViewResponse {
	a.t.Helper()
	resp, data := a.do(method, path, body)
	require.Equal(a.t, wantStatus, resp.StatusCode, string(data))
	var v ViewResponse
	require.NoError(a.t, json.Unmarshal(data, &v))
	return v
}

func (a *bookingAPI) start() string {
	a.t.Helper()
	v := a.view(http.MethodPost, "/api/bookings", nil, http.StatusCreated)
	require.NotEmpty(a.t, v.ID)
	return v.ID
}

func (a *bookingAPI) fill(id string) {
	a.t.Helper()
	base := "/api/bookings/" + id
	a.view(http.MethodPut, base+"/service", map[string]any{"service_id": 1}, http.StatusOK)
	require.True(a.t, *a.view(http.MethodPost, base+"/next", nil, http.StatusOK).Advanced)
	a.view(http.MethodPut, base+"/schedule", map[string]any{"date": "2025-06-01", "time": "14:00"}, http.StatusOK)
	require.True(a.t, *a.view(http.MethodPost, base+"/next", nil, http.StatusOK).Advanced)
	a.view(http.MethodPut, base+"/contact", map[string]any{"name": "Jane Doe", "email": "jane@example.com", "phone": "555-0100"}, http.StatusOK)
	a.view(http.MethodPut, base+"/barber", map[string]any{"barber": "marcus"}, http.StatusOK)
	v := a.view(http.MethodPost, base+"/next", nil, http.StatusOK)
	require.True(a.t, *v.Advanced)
	if v.PaymentsEnabled {
		a.view(http.MethodPost, base+"/next", nil, http.StatusOK)
	}
}

func TestBookingHandler_Catalog(t *testing.T) {
	api := newBookingAPI(t, false)
	resp, data := api.do(http.MethodGet, "/api/catalog", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cat CatalogResponse
	require.NoError(t, json.Unmarshal(data, &cat))
	assert.Len(t, cat.Services, 4)
	assert.Equal(t, []string{"Marcus", "Andre", "Tony"}, cat.Barbers)
	assert.False(t, cat.PaymentsEnabled)
	assert.Empty(t, cat.StripePublishableKey)

	api = newBookingAPI(t, true)
	_, data = api.do(http.MethodGet, "/api/catalog", nil)
	require.NoError(t, json.Unmarshal(data, &cat))
	assert.True(t, cat.PaymentsEnabled)
	assert.Equal(t, "pk_test_123", cat.StripePublishableKey)
}

func TestBookingHandler_FullFlow(t *testing.T) {
	api := newBookingAPI(t, false)
	id := api.start()
	base := "/api/bookings/" + id

	v := api.view(http.MethodGet, base, nil, http.StatusOK)
	assert.Equal(t, 1, v.Step)
	assert.Equal(t, []string{"service", "schedule", "details", "review"}, v.Steps)
	assert.False(t, v.CanAdvance)

	api.fill(id)
	v = api.view(http.MethodPost, base+"/confirm", nil, http.StatusOK)
	assert.Equal(t, wizard.StatusSuccess, v.Status)
	assert.Empty(t, v.Message)

	require.Len(t, api.receiver.bodies, 1)
	body := api.receiver.bodies[0]
	assert.Equal(t, "solicitud", body["type"])
	assert.Equal(t, "Classic Fade", body["service"])
	assert.NotContains(t, body, "barber")

	resp, ics := api.do(http.MethodGet, base+"/calendar.ics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/calendar; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="EmpireCuts-Appointment.ics"`, resp.Header.Get("Content-Disposition"))
	assert.Contains(t, string(ics), "BEGIN:VCALENDAR")
	assert.Contains(t, string(ics), "20250601T140000Z")

	resp, _ = api.do(http.MethodPost, base+"/confirm", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	v = api.view(http.MethodPost, base+"/reset", nil, http.StatusOK)
	assert.Equal(t, 1, v.Step)
	assert.Equal(t, wizard.StatusIdle, v.Status)
	assert.Nil(t, v.Draft.Service)
}

func TestBookingHandler_NextRefusedOnIncompleteStep(t *testing.T) {
	api := newBookingAPI(t, false)
	id := api.start()

	v := api.view(http.MethodPost, "/api/bookings/"+id+"/next", nil, http.StatusOK)
	require.NotNil(t, v.Advanced)
	assert.False(t, *v.Advanced)
	assert.Equal(t, 1, v.Step)

	v = api.view(http.MethodPost, "/api/bookings/"+id+"/back", nil, http.StatusOK)
	require.NotNil(t, v.Moved)
	assert.False(t, *v.Moved)
}

func TestBookingHandler_RequestValidation(t *testing.T) {
	api := newBookingAPI(t, false)
	id := api.start()
	base := "/api/bookings/" + id

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"unknown service", http.MethodPut, base + "/service", map[string]any{"service_id": 99}, http.StatusNotFound},
		{"missing service id", http.MethodPut, base + "/service", map[string]any{}, http.StatusBadRequest},
		{"unknown barber", http.MethodPut, base + "/barber", map[string]any{"barber": "Zed"}, http.StatusBadRequest},
		{"bad date", http.MethodPut, base + "/schedule", map[string]any{"date": "06/01/2025"}, http.StatusBadRequest},
		{"bad time", http.MethodPut, base + "/schedule", map[string]any{"time": "2pm"}, http.StatusBadRequest},
		{"malformed json", http.MethodPut, base + "/contact", "not an object", http.StatusBadRequest},
		{"unknown session", http.MethodGet, "/api/bookings/does-not-exist", nil, http.StatusNotFound},
		{"confirm before last step", http.MethodPost, base + "/confirm", nil, http.StatusConflict},
		{"calendar before success", http.MethodGet, base + "/calendar.ics", nil, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := api.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, resp.StatusCode, string(data))
			var body map[string]any
			require.NoError(t, json.Unmarshal(data, &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestBookingHandler_ScheduleKeepsOmittedFields(t *testing.T) {
	api := newBookingAPI(t, false)
	id := api.start()
	base := "/api/bookings/" + id

	api.view(http.MethodPut, base+"/schedule", map[string]any{"date": "2025-06-01"}, http.StatusOK)
	v := api.view(http.MethodPut, base+"/schedule", map[string]any{"time": "09:45"}, http.StatusOK)
	assert.Equal(t, "2025-06-01", v.Draft.Date)
	assert.Equal(t, "09:45", v.Draft.Time)
}

func TestBookingHandler_EditsAfterSuccessConflict(t *testing.T) {
	api := newBookingAPI(t, false)
	id := api.start()
	api.fill(id)
	base := "/api/bookings/" + id
	api.view(http.MethodPost, base+"/confirm", nil, http.StatusOK)

	resp, _ := api.do(http.MethodPut, base+"/schedule", map[string]any{"date": "2025-07-01"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp, _ = api.do(http.MethodPost, base+"/back", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	v := api.view(http.MethodGet, base, nil, http.StatusOK)
	assert.Equal(t, "2025-06-01", v.Draft.Date)
	assert.Equal(t, wizard.StatusSuccess, v.Status)

	v = api.view(http.MethodPost, base+"/reset", nil, http.StatusOK)
	assert.Equal(t, 1, v.Step)
	api.view(http.MethodPut, base+"/schedule", map[string]any{"date": "2025-07-01"}, http.StatusOK)
}

func TestBookingHandler_ConfirmFailureIsRetryable(t *testing.T) {
	api := newBookingAPI(t, false)
	api.receiver.setStatus(http.StatusInternalServerError)
	id := api.start()
	api.fill(id)
	base := "/api/bookings/" + id

	v := api.view(http.MethodPost, base+"/confirm", nil, http.StatusBadGateway)
	assert.Equal(t, wizard.StatusError, v.Status)
	assert.Equal(t, retryMessage, v.Message)
	assert.Equal(t, "Jane Doe", v.Draft.Name)

	api.receiver.setStatus(http.StatusOK)
	v = api.view(http.MethodPost, base+"/confirm", nil, http.StatusOK)
	assert.Equal(t, wizard.StatusSuccess, v.Status)
	require.Len(t, api.receiver.bodies, 2)
	assert.Equal(t, api.receiver.bodies[0], api.receiver.bodies[1])
}

func TestBookingHandler_PaymentVariant(t *testing.T) {
	api := newBookingAPI(t, true)
	id := api.start()
	base := "/api/bookings/" + id

	v := api.view(http.MethodGet, base, nil, http.StatusOK)
	assert.Equal(t, 5, v.TotalSteps)
	api.fill(id)

	v = api.view(http.MethodPost, base+"/confirm", map[string]any{"payment_handle": payments.DeclinedTestHandle}, http.StatusBadGateway)
	assert.Equal(t, wizard.StatusError, v.Status)
	assert.False(t, v.Draft.HasPaymentToken)
	assert.Empty(t, api.receiver.bodies)

	raw := strings.NewReader(`{"payment_handle":"tok_visa"}`)
	req, err := http.NewRequest(http.MethodPost, api.server.URL+base+"/confirm", raw)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Len(t, api.receiver.bodies, 1)
	body := api.receiver.bodies[0]
	assert.Equal(t, "Marcus", body["barber"])
	assert.Equal(t, "Marcus", body["barber_name"])
	assert.Equal(t, "paid", body["payment_status"])
	assert.Equal(t, 35.0, body["amount"])
	assert.True(t, strings.HasPrefix(body["paymentMethodId"].(string), "pm_fake_"))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor(session.ErrNotFound))
	assert.Equal(t, http.StatusConflict, statusFor(booking.ErrSubmissionInFlight))
	assert.Equal(t, http.StatusConflict, statusFor(booking.ErrSuperseded))
	assert.Equal(t, http.StatusBadGateway, statusFor(booking.ErrSubmission))
	assert.Equal(t, http.StatusInternalServerError, statusFor(io.ErrUnexpectedEOF))
}
