package config

const (
	defaultDataDir             = "~/.local/share/qrprint"
	defaultLogDir              = "~/.local/share/qrprint/logs"
	defaultPrinterConfigPath   = "~/.config/qrprint/printer_config.json"
	defaultLogRetentionDays    = 30
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultRequestTimeout      = 5
	defaultShutdownTimeout     = 2
	defaultPollIntervalMS      = 1000
	defaultQueueSize           = 64
	defaultBusyTimeoutMS       = 5000
	defaultMaxConcurrentJobs   = 4
	defaultHistoryLimit        = 100
	defaultNotifyTimeout       = 10
	historyDatabaseName        = "printer_history.db"
	stationLockName            = "qrprint.lock"
	defaultConfigPathTemplate  = "~/.config/qrprint/config.toml"
	defaultProjectConfigName   = "qrprint.toml"
	defaultFetchTimeoutSeconds = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:       defaultDataDir,
			LogDir:        defaultLogDir,
			PrinterConfig: defaultPrinterConfigPath,
		},
		Store: Store{
			RequestTimeout:  defaultRequestTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
			PollIntervalMS:  defaultPollIntervalMS,
			QueueSize:       defaultQueueSize,
			BusyTimeoutMS:   defaultBusyTimeoutMS,
		},
		Dispatch: Dispatch{
			MaxConcurrentJobs: defaultMaxConcurrentJobs,
			HistoryLimit:      defaultHistoryLimit,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Completed:      false,
			Failed:         true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
