package config

import (
	"encoding/json"
	"hash/fnv"
)

// hashBytes returns a stable 64-bit hash of bytes. Empty input returns 0.
func hashBytes(b []byte) uint64 {
	if len(b) == 0 {
		return 0
	}
	h := fnv.New64a()
	_, _ = h.Write(b)
	return h.Sum64()
}

func hashConfig(cfg *Config) uint64 {
	if cfg == nil {
		return 0
	}
	// Storage.Extended is left out of Config's JSON form, so it is hashed
	// alongside it; otherwise a change to the YAML overlay alone would look
	// unchanged.
	b, err := json.Marshal(struct {
		Config   *Config                      `json:"config"`
		Extended map[string]map[string]string `json:"extended"`
	}{cfg, cfg.Storage.Extended})
	if err != nil {
		return 0
	}
	return hashBytes(b)
}
