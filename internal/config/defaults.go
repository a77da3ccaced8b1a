package config

const (
	defaultDataDir   = "~/.local/share/aquanexa"
	defaultUploadDir = "~/.local/share/aquanexa/uploads"
	defaultLogDir    = "~/.local/share/aquanexa/logs"

	defaultPollInterval       = 5
	defaultErrorRetryInterval = 10
	defaultWorkers            = 2

	defaultTimeToleranceMinutes = 5
	defaultListLimit            = 1000

	defaultMaxCSVMiB   = 100
	defaultMaxExcelMiB = 100
	defaultMaxJSONMiB  = 100
	defaultMaxImageMiB = 50

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			UploadDir: defaultUploadDir,
			LogDir:    defaultLogDir,
		},
		Workflow: Workflow{
			PollInterval:       defaultPollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			Workers:            defaultWorkers,
		},
		Unify: Unify{
			TimeToleranceMinutes: defaultTimeToleranceMinutes,
			DefaultListLimit:     defaultListLimit,
		},
		Limits: Limits{
			MaxCSVMiB:   defaultMaxCSVMiB,
			MaxExcelMiB: defaultMaxExcelMiB,
			MaxJSONMiB:  defaultMaxJSONMiB,
			MaxImageMiB: defaultMaxImageMiB,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
