package health

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"
)

// HealthStatus represents the overall system health
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Message   string                   `json:"message"`
	Services  map[string]ServiceHealth `json:"services"`
	Uptime    string                   `json:"uptime"`
}

// ServiceHealth represents health of a dependency
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Latency string `json:"latency_ms"`
}

// Probe returns nil when the dependency answers.
type Probe func(ctx context.Context) error

// HealthChecker runs the registered probes.
type HealthChecker struct {
	probes    map[string]Probe
	timeout   time.Duration
	startTime time.Time
}

// NewHealthChecker creates a checker with no probes.
func NewHealthChecker(timeout time.Duration) *HealthChecker {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &HealthChecker{
		probes:    make(map[string]Probe),
		timeout:   timeout,
		startTime: time.Now(),
	}
}

// Register adds a named probe. Registering a name twice replaces it.
func (hc *HealthChecker) Register(name string, probe Probe) {
	hc.probes[name] = probe
}

// DatabaseProbe pings the connection pool behind db.
func DatabaseProbe(db *gorm.DB) Probe {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}

// Check performs a complete health check
func (hc *HealthChecker) Check(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Services:  make(map[string]ServiceHealth, len(hc.probes)),
		Uptime:    hc.calculateUptime(),
	}

	var failing []string
	for name, probe := range hc.probes {
		svc := hc.run(ctx, probe)
		status.Services[name] = svc
		if svc.Status != "healthy" {
			failing = append(failing, name)
		}
	}
	sort.Strings(failing)

	if len(failing) > 0 {
		status.Status = "degraded"
		status.Message = fmt.Sprintf("Unhealthy dependencies: %v", failing)
	} else {
		status.Message = fmt.Sprintf("System operating normally with %d dependencies", len(hc.probes))
	}
	return status
}

func (hc *HealthChecker) run(ctx context.Context, probe Probe) ServiceHealth {
	ctx, cancel := context.WithTimeout(ctx, hc.timeout)
	defer cancel()

	start := time.Now()
	err := probe(ctx)
	latency := fmt.Sprintf("%d", time.Since(start).Milliseconds())

	if err != nil {
		return ServiceHealth{Status: "unhealthy", Message: err.Error(), Latency: latency}
	}
	return ServiceHealth{Status: "healthy", Message: "ok", Latency: latency}
}

// calculateUptime calculates system uptime as human-readable string
func (hc *HealthChecker) calculateUptime() string {
	elapsed := time.Since(hc.startTime)

	days := int(elapsed.Hours()) / 24
	hours := int(elapsed.Hours()) % 24
	minutes := int(elapsed.Minutes()) % 60
	seconds := int(elapsed.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	} else if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}
