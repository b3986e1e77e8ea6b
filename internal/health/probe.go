package health

import (
	"context"
	"time"
)

// Check pings one dependency. Implementations must respect ctx cancellation.
type Check func(ctx context.Context) error

type Result struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ProbeRunner runs the registered readiness checks with a shared per-check
// timeout so one stuck dependency cannot wedge the probe endpoint.
type ProbeRunner struct {
	timeout time.Duration
	checks  []namedCheck
}

type namedCheck struct {
	name  string
	check Check
}

func NewProbeRunner(timeout time.Duration) *ProbeRunner {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &ProbeRunner{timeout: timeout}
}

func (p *ProbeRunner) Register(name string, check Check) {
	p.checks = append(p.checks, namedCheck{name: name, check: check})
}

func (p *ProbeRunner) Ready(ctx context.Context) (bool, []Result) {
	ready := true
	results := make([]Result, 0, len(p.checks))
	for _, nc := range p.checks {
		checkCtx, cancel := context.WithTimeout(ctx, p.timeout)
		err := nc.check(checkCtx)
		cancel()
		res := Result{Name: nc.name, Status: "ok"}
		if err != nil {
			ready = false
			res.Status = "failed"
			res.Error = err.Error()
		}
		results = append(results, res)
	}
	return ready, results
}
