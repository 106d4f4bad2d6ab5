package dispatch

import (
	"fmt"
	"net/url"
	"time"
)

// maxRetriesLimit keeps the backoff shift well inside time.Duration.
const maxRetriesLimit = 20

// Config controls delivery, sweeping and shutdown.
type Config struct {
	Channel         string        `env:"DISPATCH_CHANNEL" envDefault:"notification_channel"`
	MaxRetries      int           `env:"DISPATCH_MAX_RETRIES" envDefault:"3"`
	BackoffUnit     time.Duration `env:"DISPATCH_BACKOFF_UNIT" envDefault:"1s"`
	SendTimeout     time.Duration `env:"DISPATCH_SEND_TIMEOUT" envDefault:"30s"`
	MaxConcurrent   int           `env:"DISPATCH_MAX_CONCURRENT" envDefault:"10"`
	ClaimLease      time.Duration `env:"DISPATCH_CLAIM_LEASE" envDefault:"5m"`
	RecordTimeout   time.Duration `env:"DISPATCH_RECORD_TIMEOUT" envDefault:"10s"`
	SweepGrace      time.Duration `env:"DISPATCH_SWEEP_GRACE" envDefault:"30s"`
	SweepInterval   time.Duration `env:"DISPATCH_SWEEP_INTERVAL" envDefault:"5m"` // 0 disables the periodic sweep
	SweepBatchSize  int           `env:"DISPATCH_SWEEP_BATCH_SIZE" envDefault:"100"`
	ShutdownTimeout time.Duration `env:"DISPATCH_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	DashboardURL    string        `env:"DISPATCH_DASHBOARD_URL" envDefault:"https://blood-care.vercel.app"`
}

// DefaultConfig returns the configuration used when no environment is loaded.
func DefaultConfig() Config {
	return Config{
		Channel:         "notification_channel",
		MaxRetries:      3,
		BackoffUnit:     time.Second,
		SendTimeout:     30 * time.Second,
		MaxConcurrent:   10,
		ClaimLease:      5 * time.Minute,
		RecordTimeout:   10 * time.Second,
		SweepGrace:      30 * time.Second,
		SweepInterval:   5 * time.Minute,
		SweepBatchSize:  100,
		ShutdownTimeout: 30 * time.Second,
		DashboardURL:    "https://blood-care.vercel.app",
	}
}

// Validate implements config.Validator.
func (c Config) Validate() error {
	switch {
	case c.Channel == "":
		return fmt.Errorf("%w: DISPATCH_CHANNEL is required", ErrInvalidConfig)
	case c.MaxRetries < 0:
		return fmt.Errorf("%w: DISPATCH_MAX_RETRIES must not be negative", ErrInvalidConfig)
	case c.MaxRetries > maxRetriesLimit:
		return fmt.Errorf("%w: DISPATCH_MAX_RETRIES must not exceed %d", ErrInvalidConfig, maxRetriesLimit)
	case c.BackoffUnit <= 0:
		return fmt.Errorf("%w: DISPATCH_BACKOFF_UNIT must be positive", ErrInvalidConfig)
	case c.SendTimeout <= 0:
		return fmt.Errorf("%w: DISPATCH_SEND_TIMEOUT must be positive", ErrInvalidConfig)
	case c.MaxConcurrent <= 0:
		return fmt.Errorf("%w: DISPATCH_MAX_CONCURRENT must be positive", ErrInvalidConfig)
	case c.RecordTimeout <= 0:
		return fmt.Errorf("%w: DISPATCH_RECORD_TIMEOUT must be positive", ErrInvalidConfig)
	case c.ClaimLease < c.DeliveryBudget():
		return fmt.Errorf("%w: DISPATCH_CLAIM_LEASE %s is shorter than the worst-case delivery time %s",
			ErrInvalidConfig, c.ClaimLease, c.DeliveryBudget())
	case c.SweepGrace < 0:
		return fmt.Errorf("%w: DISPATCH_SWEEP_GRACE must not be negative", ErrInvalidConfig)
	case c.SweepInterval < 0:
		return fmt.Errorf("%w: DISPATCH_SWEEP_INTERVAL must not be negative", ErrInvalidConfig)
	case c.SweepBatchSize <= 0:
		return fmt.Errorf("%w: DISPATCH_SWEEP_BATCH_SIZE must be positive", ErrInvalidConfig)
	case c.ShutdownTimeout <= 0:
		return fmt.Errorf("%w: DISPATCH_SHUTDOWN_TIMEOUT must be positive", ErrInvalidConfig)
	}
	return validateDashboardURL(c.DashboardURL)
}

// DeliveryBudget is the longest a single claimed delivery can take when every
// attempt runs into SendTimeout. The claim lease must cover it, otherwise a
// second claim can succeed while the first send is still running.
func (c Config) DeliveryBudget() time.Duration {
	total := time.Duration(c.MaxRetries+1)*c.SendTimeout + c.RecordTimeout
	for attempt := range c.MaxRetries {
		total += c.BackoffUnit << attempt
	}
	return total
}

func validateDashboardURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: DISPATCH_DASHBOARD_URL: %v", ErrInvalidConfig, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: DISPATCH_DASHBOARD_URL must be an absolute http(s) URL", ErrInvalidConfig)
	}
	return nil
}
