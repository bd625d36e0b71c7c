package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter builds the gateway router: auth endpoints served in-process,
// everything under /finance/ proxied to the finance service.
func NewRouter() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/auth/login", LoginHandler).Methods("POST")
	router.HandleFunc("/auth/logout", LogoutHandler).Methods("POST")
	router.HandleFunc("/get-sessions", GetSessionsHandler).Methods("GET")

	router.PathPrefix("/finance/").Handler(createReverseProxy("http://localhost:6145"))

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("API Gateway is healthy"))
	}).Methods("GET")

	router.NotFoundHandler = http.HandlerFunc(notFoundHandler)

	return router
}
