package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"

	"github.com/robfig/cron/v3"
)

// cronParser accepts standard five-field cron expressions, matching the
// scheduler in internal/maintenance.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Validate checks the structural validity of a Config. It collects all
// problems rather than stopping at the first one.
func Validate(cfg *Config) error {
	var errs []error

	if _, err := net.ResolveTCPAddr("tcp", cfg.Server.Bind); err != nil {
		errs = append(errs, fmt.Errorf("config: invalid server bind address %q", cfg.Server.Bind))
	}

	if cfg.Storage.BusyTimeout < 0 {
		errs = append(errs, fmt.Errorf("config: storage busy_timeout must be non-negative, got %d", cfg.Storage.BusyTimeout))
	}

	u, err := url.Parse(cfg.Model.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("config: invalid model endpoint %q", cfg.Model.Endpoint))
	}
	if cfg.Model.Name == "" {
		errs = append(errs, errors.New("config: model name is required"))
	}

	if cfg.Retention.Enabled {
		if _, err := cronParser.Parse(cfg.Retention.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("config: invalid retention schedule %q: %w", cfg.Retention.Schedule, err))
		}
	}

	return errors.Join(errs...)
}
