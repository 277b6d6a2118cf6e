package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	pide "github.com/jmontalvo/go-pide"
)

type server struct {
	client *pide.Client
	log    *zap.Logger
}

func (s *server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

func (s *server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", w.Header().Get("X-Request-ID")),
		)
		next.ServeHTTP(w, r)
	})
}

func (s *server) handleOffices(w http.ResponseWriter, r *http.Request) {
	offices, err := s.client.Sunarp.Offices(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"oficinas": offices})
}

func (s *server) handlePlate(w http.ResponseWriter, r *http.Request) {
	plate := mux.Vars(r)["placa"]
	record, err := s.client.Sunarp.SearchVehicleByPlate(r.Context(), plate)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, record)
}

func (s *server) handleLegalEntity(w http.ResponseWriter, r *http.Request) {
	record, err := s.client.Sunarp.LegalEntityByName(r.Context(), r.URL.Query().Get("razonSocial"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, record)
}

type titularityRequest struct {
	TipoParticipante string `json:"tipoParticipante"`
	ApellidoPaterno  string `json:"apellidoPaterno"`
	ApellidoMaterno  string `json:"apellidoMaterno"`
	Nombres          string `json:"nombres"`
	RazonSocial      string `json:"razonSocial"`
}

func (s *server) handleTitularity(w http.ResponseWriter, r *http.Request) {
	var req titularityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "cuerpo JSON inválido"})
		return
	}

	entries, err := s.client.Sunarp.SearchTitularity(r.Context(), &pide.TitularityQuery{
		ParticipantType: req.TipoParticipante,
		PaternalSurname: req.ApellidoPaterno,
		MaternalSurname: req.ApellidoMaterno,
		GivenName:       req.Nombres,
		LegalName:       req.RazonSocial,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"titulares": entries})
}

func (s *server) handleDNI(w http.ResponseWriter, r *http.Request) {
	person, err := s.client.Reniec.ConsultDNI(r.Context(), mux.Vars(r)["dni"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, person)
}

func (s *server) handleRUC(w http.ResponseWriter, r *http.Request) {
	info, err := s.client.Sunat.RUC(r.Context(), mux.Vars(r)["ruc"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, info)
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encoding response", zap.Error(err))
	}
}

func (s *server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", zap.Error(err))
	} else {
		s.log.Warn("request rejected", zap.Error(err))
	}
	s.writeJSON(w, status, map[string]any{"error": err.Error()})
}

func statusFor(err error) int {
	var (
		validation *pide.ValidationError
		authErr    *pide.AuthError
		permission *pide.PermissionError
		notFound   *pide.NotFoundError
		transport  *pide.TransportError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &authErr):
		return http.StatusUnauthorized
	case errors.As(err, &permission):
		return http.StatusForbidden
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &transport):
		return http.StatusBadGateway
	case errors.Is(err, pide.ErrNoCredentials):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
