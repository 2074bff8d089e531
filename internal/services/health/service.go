package health

import (
	"context"
	"time"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// Check reports whether one dependency is usable.
type Check func(ctx context.Context) error

// Service runs the registered dependency checks.
type Service struct {
	checks  map[string]Check
	order   []string
	timeout time.Duration
}

// NewService constructs a new health service.
func NewService() *Service {
	return &Service{checks: map[string]Check{}, timeout: 2 * time.Second}
}

// Register adds a named check. Later registrations replace earlier ones.
func (s *Service) Register(name string, check Check) *Service {
	if _, ok := s.checks[name]; !ok {
		s.order = append(s.order, name)
	}
	s.checks[name] = check
	return s
}

// Report is the health payload.
type Report struct {
	Status     string            `json:"status"`
	Version    string            `json:"version"`
	Components map[string]string `json:"components,omitempty"`
}

// Healthy reports whether every component passed.
func (r Report) Healthy() bool { return r.Status == "healthy" }

// Status runs every check. A failing dependency degrades the service without
// making it unhealthy, since generation can still fall back.
func (s *Service) Status(ctx context.Context) Report {
	rep := Report{Status: "healthy", Version: Version}
	if len(s.order) == 0 {
		return rep
	}
	rep.Components = make(map[string]string, len(s.order))
	for _, name := range s.order {
		cctx, cancel := context.WithTimeout(ctx, s.timeout)
		err := s.checks[name](cctx)
		cancel()
		if err != nil {
			rep.Components[name] = "unavailable"
			rep.Status = "degraded"
			continue
		}
		rep.Components[name] = "ok"
	}
	return rep
}
