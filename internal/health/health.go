package health

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type CheckResult struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

// ProbeRunner evaluates readiness checks with a shared per-call timeout.
type ProbeRunner struct {
	checks  []Check
	timeout time.Duration
}

func NewProbeRunner(timeout time.Duration, checks ...Check) *ProbeRunner {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &ProbeRunner{checks: checks, timeout: timeout}
}

func (p *ProbeRunner) Ready(ctx context.Context) (bool, []CheckResult) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	ready := true
	results := make([]CheckResult, 0, len(p.checks))
	for _, c := range p.checks {
		result := CheckResult{Name: c.Name, Healthy: true}
		if err := c.Probe(ctx); err != nil {
			result.Healthy = false
			result.Error = err.Error()
			ready = false
		}
		results = append(results, result)
	}
	return ready, results
}

func DatabaseCheck(db *gorm.DB) Check {
	return Check{
		Name: "database",
		Probe: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
}

func RedisCheck(client *redis.Client) Check {
	return Check{
		Name: "redis",
		Probe: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
	}
}
