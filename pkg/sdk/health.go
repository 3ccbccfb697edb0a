package modcurator

import (
	"context"

	healthuc "github.com/TheVirusNVGM/modcurator/internal/usecase/health"
)

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// HealthStatus is the aggregated catalog and embedding provider state.
// Status is "ok", "degraded" (catalog up, provider down) or "error".
type HealthStatus struct {
	Status string
	Checks map[string]string // component -> "ok" | "error"
}

// Serving reports whether retrieval and resolution can run. Degraded still
// serves keyword queries.
func (h HealthStatus) Serving() bool {
	return h.Status != string(healthuc.Unhealthy)
}

// Health pings the catalog and, when an embedder is set, the provider.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	out := HealthStatus{
		Status: string(report.Status),
		Checks: make(map[string]string, len(report.Checks)),
	}
	for component, res := range report.Checks {
		out.Checks[component] = string(res)
	}
	return out
}
