package config

const (
	defaultBaseURL             = "https://api.adforge.dev"
	defaultAPITimeoutSeconds   = 30
	defaultDataDir             = "~/.local/share/adforge"
	defaultDownloadsDir        = "~/adforge/downloads"
	defaultLogDir              = "~/.local/share/adforge/logs"
	defaultJobPollInterval     = 5
	defaultTaskRefreshInterval = 30
	defaultOAuthListen         = "127.0.0.1:8976"
	defaultSuccessRedirectSec  = 2
	defaultErrorRedirectSec    = 3
	defaultNotifyTimeout       = 10
	defaultLowBalance          = 10
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		API: API{
			BaseURL:        defaultBaseURL,
			TimeoutSeconds: defaultAPITimeoutSeconds,
		},
		Paths: Paths{
			DataDir:      defaultDataDir,
			DownloadsDir: defaultDownloadsDir,
			LogDir:       defaultLogDir,
		},
		Poll: Poll{
			JobInterval:         defaultJobPollInterval,
			TaskRefreshInterval: defaultTaskRefreshInterval,
		},
		OAuth: OAuth{
			Listen:             defaultOAuthListen,
			SuccessRedirectSec: defaultSuccessRedirectSec,
			ErrorRedirectSec:   defaultErrorRedirectSec,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Generation:     true,
			Connect:        true,
			Errors:         true,
		},
		Credits: Credits{
			LowBalanceThreshold: defaultLowBalance,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
