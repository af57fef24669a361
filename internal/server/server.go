// Package server exposes the task and list-configuration API over HTTP.
// The wire contract matches the serverless endpoints it replaces: shared
// secret in the x-auth-key header, query-string ids, `{"success":true}`
// bodies on mutations.
package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"

	"taskboard/internal/auth"
	"taskboard/internal/model"
	"taskboard/internal/store"
)

// Server routes /api requests to a Store behind the auth gate.
type Server struct {
	store  store.Store
	gate   *auth.Gate
	logger *log.Logger
	mux    *http.ServeMux
}

func New(st store.Store, gate *auth.Gate, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(os.Stderr, "server: ", log.LstdFlags)
	}
	s := &Server{store: st, gate: gate, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/tasks", s.withAuth(s.handleTasks))
	mux.HandleFunc("/api/lists", s.withAuth(s.handleLists))
	s.mux = mux
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// withAuth rejects requests whose x-auth-key header does not match,
// before any store access.
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.gate.Allow(r.Header.Get("x-auth-key")) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next(w, r)
	}
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listTasks(w, r)
	case http.MethodPost:
		s.createTask(w, r)
	case http.MethodPut:
		s.updateTask(w, r)
	case http.MethodDelete:
		s.deleteTask(w, r)
	default:
		writeMethodNotAllowed(w)
	}
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	filter := store.Filter{GroupID: r.URL.Query().Get("groupId")}
	tasks, err := s.store.ListTasks(r.Context(), filter)
	if err != nil {
		s.storeError(w, err)
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var draft store.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if _, err := s.store.CreateTask(r.Context(), draft); err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]bool{"success": true})
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "id is required"})
		return
	}
	var patch store.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if err := s.store.UpdateTask(r.Context(), id, patch); err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "id is required"})
		return
	}
	if err := s.store.DeleteTask(r.Context(), id); err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleLists(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		lists, err := s.store.GetLists(r.Context())
		if err != nil {
			s.storeError(w, err)
			return
		}
		// nil encodes as JSON null: "never saved" is distinct from an
		// empty configuration.
		writeJSON(w, http.StatusOK, lists)
	case http.MethodPost:
		var lists []model.List
		if err := json.NewDecoder(r.Body).Decode(&lists); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
			return
		}
		if err := s.store.PutLists(r.Context(), lists); err != nil {
			s.storeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	default:
		writeMethodNotAllowed(w)
	}
}

func (s *Server) storeError(w http.ResponseWriter, err error) {
	var rejected *store.RejectedError
	if errors.As(err, &rejected) {
		writeJSON(w, rejected.Status, map[string]string{"error": rejected.Message})
		return
	}
	s.logger.Printf("store: %v", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
}
