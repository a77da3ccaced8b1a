package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.DataDir) == "" {
		problems = append(problems, "paths.data_dir must not be empty")
	}
	if strings.TrimSpace(c.Paths.UploadDir) == "" {
		problems = append(problems, "paths.upload_dir must not be empty")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		problems = append(problems, "paths.log_dir must not be empty")
	}
	if c.Workflow.PollInterval <= 0 {
		problems = append(problems, "workflow.poll_interval must be positive")
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		problems = append(problems, "workflow.error_retry_interval must be positive")
	}
	if c.Workflow.Workers <= 0 {
		problems = append(problems, "workflow.workers must be positive")
	}
	if c.Unify.TimeToleranceMinutes < 0 {
		problems = append(problems, "unify.time_tolerance_minutes must not be negative")
	}
	if c.Unify.DefaultListLimit <= 0 {
		problems = append(problems, "unify.default_list_limit must be positive")
	}
	for _, limit := range []struct {
		name  string
		value int
	}{
		{"limits.max_csv_mib", c.Limits.MaxCSVMiB},
		{"limits.max_excel_mib", c.Limits.MaxExcelMiB},
		{"limits.max_json_mib", c.Limits.MaxJSONMiB},
		{"limits.max_image_mib", c.Limits.MaxImageMiB},
	} {
		if limit.value <= 0 {
			problems = append(problems, fmt.Sprintf("%s must be positive", limit.name))
		}
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is not supported (console, json)", c.Logging.Format))
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
