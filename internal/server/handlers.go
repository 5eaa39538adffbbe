package server

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/shindan/internal/advisor"
	"github.com/hyperjump/shindan/internal/models"
	"github.com/hyperjump/shindan/internal/storage"
)

const maxBodyBytes = 64 << 10

type symptomSearchRequest struct {
	Search string `json:"search"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.advisor.Status(r.Context())
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, struct {
		Success   bool   `json:"success"`
		System    string `json:"system"`
		Version   string `json:"version"`
		Timestamp string `json:"timestamp"`
		*advisor.Status
	}{
		Success:   true,
		System:    "shindan",
		Version:   Version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Status:    status,
	})
}

func (s *Server) handleSymptoms(w http.ResponseWriter, r *http.Request) {
	var (
		symptoms []models.Symptom
		err      error
	)
	if term := r.URL.Query().Get("search"); term != "" {
		symptoms, err = s.advisor.SearchSymptoms(r.Context(), term)
	} else {
		symptoms, err = s.advisor.Symptoms(r.Context())
	}
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondSymptoms(w, symptoms)
}

func (s *Server) handleSymptomSearch(w http.ResponseWriter, r *http.Request) {
	var req symptomSearchRequest
	if !s.decode(w, r, &req) {
		return
	}
	symptoms, err := s.advisor.SearchSymptoms(r.Context(), req.Search)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondSymptoms(w, symptoms)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.advisor.Categories(r.Context())
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "categories": cats})
}

func (s *Server) handleAdvice(w http.ResponseWriter, r *http.Request) {
	var req models.AdviceRequest
	if !s.decode(w, r, &req) {
		return
	}
	ids := models.ParseSymptomIDs(req.Symptoms)
	s.logger.Debug("advice request", zap.Int64s("symptom_ids", ids))
	resp, err := s.advisor.Advise(r.Context(), advisor.AdviceInput{
		SymptomIDs: ids,
		SessionID:  req.SessionID,
		IPAddress:  clientIP(r),
		UserAgent:  r.UserAgent(),
	})
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetAdvice(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid advice id")
		return
	}
	entry, err := s.advisor.Advice(r.Context(), id)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "advice": entry})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if !s.decode(w, r, &req) {
		return
	}
	reply, err := s.advisor.Chat(r.Context(), advisor.ChatInput{
		Message:   req.Message,
		SessionID: req.SessionID,
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, reply)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid JSON data")
		return false
	}
	return true
}

func (s *Server) respondSymptoms(w http.ResponseWriter, symptoms []models.Symptom) {
	if symptoms == nil {
		symptoms = []models.Symptom{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"symptoms": symptoms,
		"count":    len(symptoms),
	})
}

// respondFailure maps advisor errors to a status code. Lookup failures never leak details.
func (s *Server) respondFailure(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, advisor.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	}
	s.respondError(w, status, advisor.UserMessage(err))
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]interface{}{"success": false, "message": message})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
