package config

import "flag"

var (
	flagConfig  = flag.String("config", "", "Path to config file")
	flagDebug   = flag.Bool("debug", false, "Enable debug logging")
	flagVariant = flag.String("variant", "", "Collision variant (fast or precise)")
	flagWorkers = flag.Int("workers", 0, "Deformation worker count")
	flagStride  = flag.Int("stride", 0, "Vertex association stride")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// Args returns the non-flag arguments.
func Args() []string {
	return flag.Args()
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagVariant != "" {
		cfg.Controller.Variant = *flagVariant
	}
	if *flagWorkers > 0 {
		cfg.Controller.Workers = *flagWorkers
	}
	if *flagStride > 0 {
		cfg.Controller.Stride = *flagStride
	}
}

// ParseArgs parses args instead of os.Args[1:], for tools whose first
// argument is a subcommand.
func ParseArgs(args []string) error {
	return flag.CommandLine.Parse(args)
}
