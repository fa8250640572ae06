package config

const (
	defaultInboxDir          = "~/.local/share/dicomschema/inbox"
	defaultLibraryDir        = "~/.local/share/dicomschema/library"
	defaultLogDir            = "~/.local/share/dicomschema/logs"
	defaultEngineCommand     = "python3"
	defaultPackageSource     = "index"
	defaultStartupTimeout    = 300
	defaultSizeLimitGiB      = 2
	defaultReadConcurrency   = 8
	defaultValidationEntries = 256
	defaultSettleSeconds     = 2
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			InboxDir:   defaultInboxDir,
			LibraryDir: defaultLibraryDir,
			LogDir:     defaultLogDir,
		},
		Engine: Engine{
			Command:        defaultEngineCommand,
			Args:           []string{"-m", "dicompare.worker"},
			PackageSource:  defaultPackageSource,
			StartupTimeout: defaultStartupTimeout,
		},
		Ingest: Ingest{
			SizeLimitGiB:    defaultSizeLimitGiB,
			ReadConcurrency: defaultReadConcurrency,
		},
		Cache: Cache{
			ValidationEntries: defaultValidationEntries,
		},
		Watch: Watch{
			SettleSeconds: defaultSettleSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
