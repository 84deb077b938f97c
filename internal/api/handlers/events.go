package handlers

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Togather-Foundation/localevents/internal/api/middleware"
	"github.com/Togather-Foundation/localevents/internal/api/problem"
	"github.com/Togather-Foundation/localevents/internal/audit"
	"github.com/Togather-Foundation/localevents/internal/auth"
	"github.com/Togather-Foundation/localevents/internal/domain/events"
	"github.com/Togather-Foundation/localevents/internal/metrics"
)

type EventsHandler struct {
	Service *events.Service
	Audit   *audit.Logger
	Env     string
	Now     func() time.Time
}

func NewEventsHandler(service *events.Service, auditLogger *audit.Logger, env string) *EventsHandler {
	return &EventsHandler{Service: service, Audit: auditLogger, Env: env, Now: time.Now}
}

func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Service == nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.ServerErrorMessage, nil, "")
		return
	}

	filters, err := events.ParseFilters(r.URL.Query())
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	views, err := h.Service.ListEvents(r.Context(), filters)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	now := h.Now()
	items := make([]eventResponse, 0, len(views))
	for _, view := range views {
		items = append(items, toViewResponse(view, now))
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Service == nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.ServerErrorMessage, nil, "")
		return
	}

	id := h.eventID(r)
	view, err := h.Service.GetEvent(r.Context(), id)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, toViewResponse(*view, h.Now()))
}

func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var input events.CreateInput
	if err := decodeJSON(r, &input); err != nil {
		writeDecodeError(w, r, err, h.Env)
		return
	}

	event, err := h.Service.CreateEvent(r.Context(), caller, input)
	metrics.EventMutations.WithLabelValues("create", outcome(err)).Inc()
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	h.Audit.LogSuccess("events.create", caller.ID, "event", event.ID, audit.ClientIP(r), map[string]string{"title": event.Title})
	writeJSON(w, http.StatusCreated, toEventResponse(event, h.Now()))
}

func (h *EventsHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var patch events.EventPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeDecodeError(w, r, err, h.Env)
		return
	}

	id := h.eventID(r)
	event, err := h.Service.UpdateEvent(r.Context(), caller, id, patch)
	metrics.EventMutations.WithLabelValues("update", outcome(err)).Inc()
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	h.Audit.LogSuccess("events.update", caller.ID, "event", event.ID, audit.ClientIP(r), nil)
	writeJSON(w, http.StatusOK, toEventResponse(event, h.Now()))
}

func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	id := h.eventID(r)
	err := h.Service.DeleteEvent(r.Context(), caller, id)
	metrics.EventMutations.WithLabelValues("delete", outcome(err)).Inc()
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	h.Audit.LogSuccess("events.delete", caller.ID, "event", id, audit.ClientIP(r), nil)
	writeJSON(w, http.StatusOK, messageResponse{Msg: "Deleted"})
}

func (h *EventsHandler) Rsvp(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	id := h.eventID(r)
	count, err := h.Service.AddRsvp(r.Context(), caller, id)
	metrics.RSVPOperations.WithLabelValues("add", outcome(err)).Inc()
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	trace.SpanFromContext(r.Context()).SetAttributes(attribute.Int("rsvp.count", count))
	h.Audit.LogSuccess("rsvp.add", caller.ID, "event", id, audit.ClientIP(r), nil)
	writeJSON(w, http.StatusOK, rsvpResponse{Msg: "RSVP successful", RSVPsCount: count})
}

func (h *EventsHandler) CancelRsvp(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	id := h.eventID(r)
	count, err := h.Service.CancelRsvp(r.Context(), caller, id)
	metrics.RSVPOperations.WithLabelValues("cancel", outcome(err)).Inc()
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	trace.SpanFromContext(r.Context()).SetAttributes(attribute.Int("rsvp.count", count))
	h.Audit.LogSuccess("rsvp.cancel", caller.ID, "event", id, audit.ClientIP(r), nil)
	writeJSON(w, http.StatusOK, rsvpResponse{Msg: "Cancelled", RSVPsCount: count})
}

func (h *EventsHandler) Attendees(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	list, err := h.Service.ListAttendees(r.Context(), caller, h.eventID(r))
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, attendeesResponse{Attendees: toEntries(list)})
}

func (h *EventsHandler) eventID(r *http.Request) string {
	id := pathParam(r, "id")
	trace.SpanFromContext(r.Context()).SetAttributes(attribute.String("event.id", id))
	return id
}

// caller converts the verified identity into the service's caller. Routes
// using it are wrapped in RequireIdentity, so a missing identity is a
// wiring mistake reported as 401.
func (h *EventsHandler) caller(w http.ResponseWriter, r *http.Request) (events.Caller, bool) {
	if h == nil || h.Service == nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.ServerErrorMessage, nil, "")
		return events.Caller{}, false
	}
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		writeError(w, r, auth.ErrNoCredential, h.Env)
		return events.Caller{}, false
	}
	return events.Caller{ID: identity.ID, Organizer: identity.IsOrganizer()}, true
}
