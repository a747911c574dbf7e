package gateway

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/hostelhub/roomcast/internal/hostel"
	"github.com/hostelhub/roomcast/models"
)

// buildHandler wires all REST and SSE routes onto a chi router.
func buildHandler(gw *Gateway) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if origins := gw.cfg.Gateway.CORSOrigins; len(origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/", gw.handleRoot)
	r.Get("/health", gw.handleHealth)
	r.Get("/api/status", gw.handleStatus)

	// Server-Sent Events stream
	r.Get("/api/notifications/subscribe", gw.handleSubscribe)

	r.Route("/api/students", func(r chi.Router) {
		r.Get("/", gw.handleListStudents)
		r.Post("/", gw.handleCreateStudent)
		r.Get("/{id}", gw.handleGetStudent)
		r.Get("/{id}/assignments", gw.handleListAssignments)
		r.Post("/{id}/room", gw.handleAssignRoom)
	})

	r.Route("/api/student/complaints", func(r chi.Router) {
		r.Get("/", gw.handleListComplaints)
		r.Post("/", gw.handleSubmitComplaint)
	})

	return r
}

func (gw *Gateway) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":   "roomcast gateway",
		"status": "running",
		"endpoints": []string{
			"GET /health",
			"GET /api/status",
			"GET /api/notifications/subscribe?token=<jwt>",
			"GET /api/students",
			"POST /api/students",
			"GET /api/students/{id}",
			"GET /api/students/{id}/assignments",
			"POST /api/students/{id}/room",
		},
	})
}

func (gw *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := gw.db.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (gw *Gateway) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, gw.currentStatus())
}

func (gw *Gateway) handleListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := gw.hostel.Store().List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, students)
}

func (gw *Gateway) handleCreateStudent(w http.ResponseWriter, r *http.Request) {
	var req createStudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	st, err := gw.hostel.Store().Create(r.Context(), req.Username, req.FullName)
	if errors.Is(err, hostel.ErrDuplicateStudent) {
		writeError(w, http.StatusConflict, "username already registered")
		return
	}
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func (gw *Gateway) handleGetStudent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	st, err := gw.hostel.Store().Get(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (gw *Gateway) handleListAssignments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := gw.hostel.Store().Get(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}
	history, err := gw.hostel.Store().Assignments(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, history)
}

// handleAssignRoom records an assignment and announces it to the student's
// open streams.
func (gw *Gateway) handleAssignRoom(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req assignRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	a, err := gw.hostel.AssignRoom(r.Context(), id, req.RoomNo)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (gw *Gateway) handleListComplaints(w http.ResponseWriter, r *http.Request) {
	complaints, err := gw.hostel.Store().ListComplaints(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, complaints)
}

// handleSubmitComplaint files a complaint. With a valid Bearer token the
// sender's student record fills in the name; otherwise the body's
// student_name is used as given.
func (gw *Gateway) handleSubmitComplaint(w http.ResponseWriter, r *http.Request) {
	var req submitComplaintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	var username string
	if tok := headerToken(r); tok != "" {
		name, err := gw.resolver.Username(tok)
		if err != nil {
			slog.Warn("gateway: complaint token rejected", "remote", r.RemoteAddr, "error", err)
		} else {
			username = name
		}
	}
	c, err := gw.hostel.SubmitComplaint(r.Context(), username, models.Complaint{
		StudentName: req.StudentName,
		Subject:     req.Subject,
		Description: req.Description,
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, hostel.ErrStudentNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, hostel.ErrInvalidRoom), errors.Is(err, hostel.ErrInvalidStudent),
		errors.Is(err, hostel.ErrInvalidComplaint):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("gateway: store error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
