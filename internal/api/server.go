package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"bountyrank/internal/reval"
	"bountyrank/internal/trigger"

	"github.com/gorilla/mux"
)

// Server exposes the remote trigger endpoint for a deployed revaluation
// instance. The endpoint is authenticated by the HMAC middleware and rate
// limited per client IP.
type Server struct {
	job     *reval.Job
	apiKey  string
	secret  string
	limiter *ipLimiter
}

func NewServer(job *reval.Job, apiKey, secret string) *Server {
	return &Server{
		job:     job,
		apiKey:  apiKey,
		secret:  secret,
		limiter: newIPLimiter(),
	}
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.Handle(trigger.TriggerPath,
		s.limiter.middleware(trigger.Middleware(s.apiKey, s.secret, http.HandlerFunc(s.handleRevalue))),
	).Methods("POST")
	return r
}

func (s *Server) ListenAndServe(port int) error {
	addr := fmt.Sprintf(":%d", port)
	log.Printf("[api] listening on %s", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute,
	}
	return srv.ListenAndServe()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleRevalue(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	res, err := s.job.Run(r.Context())
	if err != nil {
		log.Printf("[api] revaluation failed: %v", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	log.Printf("[api] revaluation done in %s (updated=%t rows=%d)",
		time.Since(started).Truncate(time.Millisecond), res.Updated, res.Rows)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"updated": res.Updated,
		"skipped": !res.Updated,
		"rows":    res.Rows,
	})
}
