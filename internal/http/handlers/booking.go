package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/wolfman30/empirecuts-booking/internal/booking"
	"github.com/wolfman30/empirecuts-booking/internal/catalog"
	"github.com/wolfman30/empirecuts-booking/internal/session"
	"github.com/wolfman30/empirecuts-booking/internal/wizard"
	"github.com/wolfman30/empirecuts-booking/pkg/logging"
)

const maxBodyBytes = 64 << 10

const retryMessage = "We couldn't submit your booking. Please try again."

// BookingHandler exposes the booking wizard as a JSON API.
type BookingHandler struct {
	sessions       *session.Manager
	publishableKey string
	validator      *validator.Validate
	logger         *logging.Logger
}

func NewBookingHandler(sessions *session.Manager, publishableKey string, logger *logging.Logger) *BookingHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &BookingHandler{
		sessions:       sessions,
		publishableKey: publishableKey,
		validator:      validator.New(),
		logger:         logger,
	}
}

// Routes mounts the handler under the caller's router.
func (h *BookingHandler) Routes(r chi.Router) {
	r.Get("/catalog", h.GetCatalog)
	r.Route("/bookings", func(r chi.Router) {
		r.Post("/", h.StartBooking)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetBooking)
			r.Put("/service", h.SelectService)
			r.Put("/barber", h.SelectBarber)
			r.Put("/schedule", h.SetSchedule)
			r.Put("/contact", h.SetContact)
			r.Post("/next", h.Next)
			r.Post("/back", h.Back)
			r.Post("/confirm", h.Confirm)
			r.Post("/reset", h.Reset)
			r.Get("/calendar.ics", h.DownloadCalendar)
		})
	})
}

type CatalogResponse struct {
	Services             []catalog.Service `json:"services"`
	Barbers              []string          `json:"barbers"`
	PaymentsEnabled      bool              `json:"payments_enabled"`
	StripePublishableKey string            `json:"stripe_publishable_key,omitempty"`
}

// ViewResponse is the wizard view plus the session id and any prompt for the
// customer.
type ViewResponse struct {
	ID string `json:"id"`
	booking.View
	Message  string `json:"message,omitempty"`
	Advanced *bool  `json:"advanced,omitempty"`
	Moved    *bool  `json:"moved,omitempty"`
}

type selectServiceRequest struct {
	ServiceID int `json:"service_id" validate:"required,gt=0"`
}

type selectBarberRequest struct {
	Barber string `json:"barber" validate:"required,max=64"`
}

type scheduleRequest struct {
	Date *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Time *string `json:"time" validate:"omitempty,datetime=15:04"`
}

type contactRequest struct {
	Name  string `json:"name" validate:"max=120"`
	Email string `json:"email" validate:"max=254"`
	Phone string `json:"phone" validate:"max=32"`
}

type confirmRequest struct {
	PaymentHandle string `json:"payment_handle" validate:"max=255"`
}

// GetCatalog returns the services, barbers and payment settings.
// GET /api/catalog
func (h *BookingHandler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	resp := CatalogResponse{
		Services:        catalog.Services(),
		Barbers:         catalog.Barbers(),
		PaymentsEnabled: h.sessions.PaymentsEnabled(),
	}
	if resp.PaymentsEnabled {
		resp.StripePublishableKey = h.publishableKey
	}
	writeJSON(w, http.StatusOK, resp)
}

// StartBooking opens a new session.
// POST /api/bookings
func (h *BookingHandler) StartBooking(w http.ResponseWriter, r *http.Request) {
	id, view, err := h.sessions.Start(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ViewResponse{ID: id, View: view})
}

// GetBooking returns the session's view.
// GET /api/bookings/{id}
func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	view, err := h.sessions.View(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newViewResponse(id, view))
}

// SelectService picks a catalog service.
// PUT /api/bookings/{id}/service
func (h *BookingHandler) SelectService(w http.ResponseWriter, r *http.Request) {
	var req selectServiceRequest
	if !h.decode(w, r, &req) {
		return
	}
	svc, ok := catalog.ServiceByID(req.ServiceID)
	if !ok {
		jsonError(w, fmt.Sprintf("unknown service %d", req.ServiceID), http.StatusNotFound)
		return
	}
	h.mutate(w, r, func(o *booking.Orchestrator) error { return o.SelectService(svc) })
}

// SelectBarber picks a barber by name.
// PUT /api/bookings/{id}/barber
func (h *BookingHandler) SelectBarber(w http.ResponseWriter, r *http.Request) {
	var req selectBarberRequest
	if !h.decode(w, r, &req) {
		return
	}
	name, ok := catalog.BarberByName(req.Barber)
	if !ok {
		jsonError(w, fmt.Sprintf("unknown barber %q", req.Barber), http.StatusBadRequest)
		return
	}
	h.mutate(w, r, func(o *booking.Orchestrator) error { return o.SelectBarber(name) })
}

// SetSchedule sets the date, the time or both. Omitted fields are left alone.
// PUT /api/bookings/{id}/schedule
func (h *BookingHandler) SetSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.mutate(w, r, func(o *booking.Orchestrator) error {
		if req.Date != nil {
			if err := o.SetDate(strings.TrimSpace(*req.Date)); err != nil {
				return err
			}
		}
		if req.Time != nil {
			return o.SetTime(strings.TrimSpace(*req.Time))
		}
		return nil
	})
}

// SetContact stores the customer's contact details.
// PUT /api/bookings/{id}/contact
func (h *BookingHandler) SetContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.mutate(w, r, func(o *booking.Orchestrator) error {
		return o.SetContact(strings.TrimSpace(req.Name), strings.TrimSpace(req.Email), strings.TrimSpace(req.Phone))
	})
}

// Next advances the wizard when the current step is complete.
// POST /api/bookings/{id}/next
func (h *BookingHandler) Next(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var advanced bool
	view, err := h.sessions.Do(r.Context(), id, func(o *booking.Orchestrator) error {
		advanced = o.GoNext()
		return nil
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	resp := newViewResponse(id, view)
	resp.Advanced = &advanced
	writeJSON(w, http.StatusOK, resp)
}

// Back moves the wizard one step back.
// POST /api/bookings/{id}/back
func (h *BookingHandler) Back(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var moved bool
	view, err := h.sessions.Do(r.Context(), id, func(o *booking.Orchestrator) error {
		if !o.Editable() {
			return booking.ErrDraftLocked
		}
		moved = o.GoBack()
		return nil
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	resp := newViewResponse(id, view)
	resp.Moved = &moved
	writeJSON(w, http.StatusOK, resp)
}

// Confirm submits the booking from the last step.
// POST /api/bookings/{id}/confirm
func (h *BookingHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if r.ContentLength != 0 && !h.decode(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	view, err := h.sessions.Confirm(r.Context(), id, strings.TrimSpace(req.PaymentHandle))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, newViewResponse(id, view))
	case errors.Is(err, booking.ErrTokenization), errors.Is(err, booking.ErrSubmission):
		h.logger.WithSession(id).Warn("booking confirm failed", "error", err)
		writeJSON(w, http.StatusBadGateway, newViewResponse(id, view))
	default:
		h.writeError(w, err)
	}
}

// Reset clears the session for a new booking.
// POST /api/bookings/{id}/reset
func (h *BookingHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(o *booking.Orchestrator) error {
		o.Reset()
		return nil
	})
}

// DownloadCalendar serves the confirmed appointment as an ICS attachment.
// GET /api/bookings/{id}/calendar.ics
func (h *BookingHandler) DownloadCalendar(w http.ResponseWriter, r *http.Request) {
	art, err := h.sessions.Calendar(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", art.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", art.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(art.Content)
}

func (h *BookingHandler) mutate(w http.ResponseWriter, r *http.Request, fn func(o *booking.Orchestrator) error) {
	id := chi.URLParam(r, "id")
	view, err := h.sessions.Do(r.Context(), id, fn)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newViewResponse(id, view))
}

func (h *BookingHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		jsonError(w, validationMessage(err), http.StatusBadRequest)
		return false
	}
	return true
}

func (h *BookingHandler) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("booking request failed", "error", err)
		jsonError(w, "internal error", status)
		return
	}
	jsonError(w, err.Error(), status)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, booking.ErrSubmissionInFlight),
		errors.Is(err, booking.ErrNotLastStep),
		errors.Is(err, booking.ErrAlreadySubmitted),
		errors.Is(err, booking.ErrNotSubmitted),
		errors.Is(err, booking.ErrSuperseded),
		errors.Is(err, booking.ErrDraftLocked):
		return http.StatusConflict
	case errors.Is(err, booking.ErrTokenization), errors.Is(err, booking.ErrSubmission):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", strings.ToLower(fe.Field()))
	case "datetime":
		return fmt.Sprintf("%s must match %s", strings.ToLower(fe.Field()), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", strings.ToLower(fe.Field()))
	}
}

func newViewResponse(id string, view booking.View) ViewResponse {
	resp := ViewResponse{ID: id, View: view}
	if view.Status == wizard.StatusError {
		resp.Message = retryMessage
	}
	return resp
}

func jsonError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
