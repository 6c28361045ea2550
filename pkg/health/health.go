package health

import (
	"context"
	"time"
)

// NewChecker creates a checker with no checks registered.
func NewChecker() *Checker {
	return &Checker{
		checks: make(map[string]CheckFunc),
		now:    time.Now,
	}
}

// Register adds or replaces a named check.
func (c *Checker) Register(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// Len returns the number of registered checks.
func (c *Checker) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.checks)
}

// Check performs all health checks. The overall status is the worst status
// of any check; a cancelled context marks the remaining checks unhealthy.
func (c *Checker) Check(ctx context.Context) Response {
	c.mu.RLock()
	defer c.mu.RUnlock()

	response := Response{
		Status:    StatusHealthy,
		Timestamp: c.now(),
		Checks:    make(map[string]Check, len(c.checks)),
	}

	for name, checkFunc := range c.checks {
		start := c.now()
		var check Check
		if err := ctx.Err(); err != nil {
			check = Check{Status: StatusUnhealthy, Message: err.Error()}
		} else {
			check = checkFunc(ctx)
		}
		if check.Name == "" {
			check.Name = name
		}
		check.Duration = time.Since(start)
		check.LastChecked = start

		response.Checks[name] = check
		response.Status = worse(response.Status, check.Status)
	}

	return response
}
