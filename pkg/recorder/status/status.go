// Package status serves a small JSON view of a recording in progress,
// useful when the recorder runs headless for long captures.
package status

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/julienschmidt/httprouter"
)

// Snapshot is the externally visible state of a recording.
type Snapshot struct {
	Driver         string  `json:"driver"`
	CenterFreq     int     `json:"center_freq"`
	SampleRate     int     `json:"sample_rate"`
	FramesWritten  int     `json:"frames_written"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	Done           bool    `json:"done"`
}

type Server struct {
	srv *http.Server

	mu   sync.RWMutex
	snap Snapshot
}

func NewServer(port int) *Server {
	return &Server{
		srv: &http.Server{Addr: fmt.Sprintf(":%d", port)},
	}
}

// Update replaces the published snapshot.
func (s *Server) Update(snap Snapshot) {
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.mu.RLock()
	snap := s.snap
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// Run serves until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	handler := httprouter.New()
	handler.GET("/status", s.getStatus)
	s.srv.Handler = handler

	errc := make(chan error, 1)
	go func() {
		errc <- s.srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		s.srv.Shutdown(sctx)
		return ctx.Err()
	case err := <-errc:
		return err
	}
}
