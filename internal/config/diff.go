package config

import "reflect"

// ConfigDiff describes what changed between two configs. Only the log level
// and the generator settings can be applied without a restart; every other
// changed section is listed in RestartRequired.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	GeneratorChanged bool
	NewGenerator     GeneratorConfig

	// RestartRequired names sections that changed but only take effect on
	// the next start, e.g. "providers" or "oracle".
	RestartRequired []string
}

// Empty reports whether nothing changed.
func (d ConfigDiff) Empty() bool {
	return !d.LogLevelChanged && !d.GeneratorChanged && len(d.RestartRequired) == 0
}

// Diff compares old and new configs.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}
	if old.Generator != new.Generator {
		d.GeneratorChanged = true
		d.NewGenerator = new.Generator
	}

	if old.Server.ListenAddr != new.Server.ListenAddr {
		d.RestartRequired = append(d.RestartRequired, "server.listen_addr")
	}
	if !reflect.DeepEqual(old.Providers, new.Providers) {
		d.RestartRequired = append(d.RestartRequired, "providers")
	}
	if old.Oracle != new.Oracle {
		d.RestartRequired = append(d.RestartRequired, "oracle")
	}
	if old.Lexicon != new.Lexicon {
		d.RestartRequired = append(d.RestartRequired, "lexicon")
	}
	return d
}
