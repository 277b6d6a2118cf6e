// Command pide-web exposes the PIDE registry client as a small JSON API.
// Credentials come from the environment (optionally via a .env file):
// SUNARP_USER, SUNARP_PASS, RENIEC_RUC, RENIEC_DNI, RENIEC_PASS and
// SUNAT_TOKEN.
package main

import (
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	pide "github.com/jmontalvo/go-pide"
)

func main() {
	// Missing .env is fine; plain environment variables also work.
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	opts := []pide.ClientOption{
		pide.WithCredentials(os.Getenv("SUNARP_USER"), os.Getenv("SUNARP_PASS")),
		pide.WithLogger(logger),
	}
	if os.Getenv("RENIEC_RUC") != "" {
		opts = append(opts, pide.WithReniecCredentials(
			os.Getenv("RENIEC_RUC"),
			os.Getenv("RENIEC_DNI"),
			os.Getenv("RENIEC_PASS"),
		))
	}
	if token := os.Getenv("SUNAT_TOKEN"); token != "" {
		opts = append(opts, pide.WithSunatToken(token))
	}

	client, err := pide.NewClient(opts...)
	if err != nil {
		logger.Fatal("configuración inválida", zap.Error(err))
	}

	srv := &server{client: client, log: logger}

	r := mux.NewRouter()
	r.Use(srv.requestID, srv.cors, srv.logRequests)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/sunarp/oficinas", srv.handleOffices).Methods("GET")
	api.HandleFunc("/sunarp/placa/{placa}", srv.handlePlate).Methods("GET")
	api.HandleFunc("/sunarp/pj", srv.handleLegalEntity).Methods("GET")
	api.HandleFunc("/sunarp/titularidad", srv.handleTitularity).Methods("POST", "OPTIONS")
	api.HandleFunc("/reniec/dni/{dni}", srv.handleDNI).Methods("GET")
	api.HandleFunc("/sunat/ruc/{ruc}", srv.handleRUC).Methods("GET")

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logger.Info("servidor iniciado", zap.String("port", port))
	logger.Fatal("server", zap.Error(http.ListenAndServe(":"+port, r)))
}
