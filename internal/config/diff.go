package config

import (
	"reflect"
	"sort"
	"strings"

	logx "ecss/pkg/logx"
)

// SummarizeConfigChange returns (1) a compact list of changed sections and
// (2) safe structured attrs for logging.
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 4)
	attrs := make([]logx.Field, 0, 12)

	if oldCfg.Logging.Level != newCfg.Logging.Level || oldCfg.Logging.Folder != newCfg.Logging.Folder {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.folder_set", strings.TrimSpace(newCfg.Logging.Folder) != ""),
		)
	}

	if !reflect.DeepEqual(oldCfg.Storage, newCfg.Storage) {
		changed = append(changed, "storage")
		attrs = append(attrs,
			logx.String("storage.backends", strings.Join(newCfg.Storage.SelectedBackends(), ",")),
		)
	}

	if oldCfg.HTTP.Addr != newCfg.HTTP.Addr {
		changed = append(changed, "http")
		attrs = append(attrs, logx.String("http.addr", newCfg.HTTP.Addr))
	}

	if oldCfg.Launch != newCfg.Launch {
		changed = append(changed, "launch")
		attrs = append(attrs,
			logx.Int("launch.chunk_size", newCfg.Launch.ChunkSize),
			logx.Int("launch.rate_per_sec", newCfg.Launch.RatePerSec),
		)
	}

	if oldCfg.Pprof != newCfg.Pprof {
		changed = append(changed, "pprof")
		attrs = append(attrs,
			logx.Bool("pprof.enabled", newCfg.Pprof.Enabled),
			logx.String("pprof.addr", newCfg.Pprof.Addr),
		)
	}

	sort.Strings(changed)
	return changed, attrs
}
