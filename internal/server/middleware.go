package server

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Middlewares functions works like interceptors for every http request.
// Methods provides ability to stop or propagate request to the chain.
type middleware struct {
	logger *logrus.Logger
}

type MiddlewareDispatcher interface {
	populate() []mux.MiddlewareFunc
}

// This method used to check preflight requests
func (m *middleware) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Used for loggin request method, url and execution time.
// Log only when log level set to logrus.InfoLevel or higher.
func (m *middleware) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.logger.Level >= logrus.InfoLevel {
			start := time.Now()
			m.logger.Infof("-> %s %s", r.Method, r.URL)
			if m.logger.Level >= logrus.DebugLevel && (r.Method == "POST" || r.Method == "PUT") {
				body, _ := ioutil.ReadAll(r.Body)
				m.logger.Debug("Body: ", string(body))
				r.Body = ioutil.NopCloser(bytes.NewBuffer(body))
			}
			next.ServeHTTP(w, r)
			m.logger.Infof("<-  %s %s %s", time.Since(start), r.Method, r.URL)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const maxBodyBytes = 1 << 16

// Reject request bodies that are too large or not JSON. Empty bodies pass,
// the action endpoints do not need one.
func (m *middleware) checkBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" && r.Method != "PUT" {
			next.ServeHTTP(w, r)
			return
		}
		body, err := ioutil.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			m.logger.Warn("Failed to read request body: ", err)
			sendErrorResponse(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		if len(bytes.TrimSpace(body)) > 0 && !json.Valid(body) {
			sendErrorResponse(w, "Malformed request body", http.StatusBadRequest)
			return
		}
		r.Body = ioutil.NopCloser(bytes.NewBuffer(body))
		next.ServeHTTP(w, r)
	})
}

// Method used for providing all middlewares at one place
// Declare all midlwares and add them to return array
func (m *middleware) populate() []mux.MiddlewareFunc {
	return []mux.MiddlewareFunc{
		m.logRequest,
		m.cors,
		handlers.CORS(
			handlers.AllowedOrigins([]string{"*"}),
			handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			handlers.AllowedHeaders([]string{"Content-Type"}),
		),
		m.checkBody,
	}
}
