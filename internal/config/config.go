// Package config loads the single environment-driven setting spec.md §6
// grants the core: INCHROSIL_OUT_DIR. It follows the teacher's
// cmd/server/init.go pattern of layering koanf providers, generalized
// down to the one variable this spec names.
package config

import (
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/env"
)

const outDirKey = "out_dir"

// OutDir returns INCHROSIL_OUT_DIR if set, else fallback.
func OutDir(fallback string) string {
	ko := koanf.New(".")
	_ = ko.Load(env.Provider("INCHROSIL_", ".", func(s string) string {
		if s == "INCHROSIL_OUT_DIR" {
			return outDirKey
		}
		return ""
	}), nil)

	if v := ko.String(outDirKey); v != "" {
		return v
	}
	return fallback
}
