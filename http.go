package main

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

const serviceName = "enclaved"

// Server mounts the enclave operations on plain HTTP. The enclave itself is
// transport-agnostic; this file is the only place that knows about routes,
// headers, and status codes.
type Server struct {
	enclave *Enclave
	logger  Logger
}

func NewServer(enclave *Enclave, logger Logger) *Server {
	return &Server{
		enclave: enclave,
		logger:  logger.NewSystem("http"),
	}
}

// Handler returns the request mux for the enclave API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /sign-data", s.handleSignData)
	mux.HandleFunc("POST /encrypt", s.handleEncrypt)
	mux.HandleFunc("POST /decrypt", s.handleDecrypt)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

func (s *Server) handleSignData(w http.ResponseWriter, r *http.Request) {
	var intent SigningIntent
	if err := json.NewDecoder(r.Body).Decode(&intent); err != nil {
		s.writeError(w, NewBadRequestError("invalid request body"))
		return
	}

	response, err := s.enclave.SignData(r.Context(), bearerToken(r), intent)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(response)
}

func (s *Server) handleEncrypt(w http.ResponseWriter, r *http.Request) {
	var req EncryptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, NewBadRequestError("invalid request body"))
		return
	}

	env, err := s.enclave.EncryptBlob(bearerToken(r), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, env)
}

func (s *Server) handleDecrypt(w http.ResponseWriter, r *http.Request) {
	var req DecryptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, NewBadRequestError("invalid request body"))
		return
	}

	result, err := s.enclave.DecryptBlob(bearerToken(r), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"service": serviceName,
		"ts":      time.Now().UnixMilli(),
	})
}

// errorResponse is the error object shape returned to callers.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	ee := AsEnclaveError(err)
	if ee.Status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "code", ee.Code, "error", err)
	}
	s.writeJSON(w, ee.Status, errorResponse{
		Error: ee.Message,
		Code:  string(ee.Code),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// bearerToken extracts the credential from the Authorization header.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
