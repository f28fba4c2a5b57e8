package api

import (
	"net/http"

	"github.com/seantiz/lunar/internal/engine"
)

// executorResponse is the JSON response for the /v1/executor endpoints.
type executorResponse struct {
	State        engine.State        `json:"state"`
	Shutdown     bool                `json:"shutdown"`
	Terminated   bool                `json:"terminated"`
	Capabilities engine.Capabilities `json:"capabilities"`
	Discarded    []string            `json:"discarded,omitempty"`
}

func (s *Server) executorStatus() executorResponse {
	st := s.exec.State()
	return executorResponse{
		State:        st,
		Shutdown:     st.IsShutdown(),
		Terminated:   st.IsTerminated(),
		Capabilities: s.exec.Capabilities(),
	}
}

func (s *Server) handleGetExecutor(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.executorStatus())
}

func (s *Server) handleShutdown(w http.ResponseWriter, _ *http.Request) {
	s.exec.Shutdown()
	s.writeJSON(w, http.StatusAccepted, s.executorStatus())
}

func (s *Server) handleShutdownNow(w http.ResponseWriter, _ *http.Request) {
	discarded := s.exec.ShutdownNow()

	resp := s.executorStatus()
	resp.Discarded = make([]string, len(discarded))
	for i, t := range discarded {
		resp.Discarded[i] = t.ID()
	}
	s.writeJSON(w, http.StatusAccepted, resp)
}
