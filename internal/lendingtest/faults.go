package lendingtest

import (
	"net/http"
	"time"
)

// FaultKind is a misbehaviour the server can be told to show on one route.
type FaultKind int

const (
	// FaultLatency delays the answer by Fault.Delay.
	FaultLatency FaultKind = iota + 1
	// FaultDrop closes the connection without answering.
	FaultDrop
	// FaultGarbage answers 200 with an HTML page instead of JSON.
	FaultGarbage
)

func (k FaultKind) String() string {
	switch k {
	case FaultLatency:
		return "latency"
	case FaultDrop:
		return "drop"
	case FaultGarbage:
		return "garbage"
	default:
		return "none"
	}
}

// Fault targets method+path. Latency faults still let the route answer afterwards.
type Fault struct {
	Kind   FaultKind
	Method string
	Path   string
	Delay  time.Duration
}

// Inject installs f, replacing any fault on the same route.
func (s *Server) Inject(f Fault) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[f.Method+" "+f.Path] = f
}

// ClearFaults removes every injected fault.
func (s *Server) ClearFaults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = make(map[string]Fault)
}

// apply runs f and reports whether the request was fully handled.
func (f Fault) apply(w http.ResponseWriter, r *http.Request) bool {
	switch f.Kind {
	case FaultLatency:
		select {
		case <-time.After(f.Delay):
			return false
		case <-r.Context().Done():
			return true
		}
	case FaultDrop:
		hj, ok := w.(http.Hijacker)
		if !ok {
			http.Error(w, "connection dropped", http.StatusInternalServerError)
			return true
		}
		conn, _, err := hj.Hijack()
		if err == nil {
			conn.Close()
		}
		return true
	case FaultGarbage:
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body>Internal Server Error</body></html>"))
		return true
	default:
		return false
	}
}
