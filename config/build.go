// Copyright 2025, the txsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"runtime/debug"
	"strings"
)

// BuildVersion is the latest tagged release of txsync.
const BuildVersion string = "v1.0.0"

type buildInfo struct {
	VcsRevision string
	VcsTime     string
	VcsModified bool
}

// Revision describes the commit the binary was built from.
func (b *buildInfo) Revision() string {
	if len(b.VcsRevision) < 8 {
		return "unknown"
	}

	s := strings.Split(b.VcsTime, "T")[0] + "-" + b.VcsRevision[:8]
	if b.VcsModified {
		s += "+dirty"
	}

	return s
}

func (b *buildInfo) load() {
	if info, ok := debug.ReadBuildInfo(); ok {
		b.VcsRevision = buildSetting(info.Settings, "vcs.revision")
		b.VcsTime = buildSetting(info.Settings, "vcs.time")
		b.VcsModified = buildSetting(info.Settings, "vcs.modified") == "true"
	}
}

func buildSetting(settings []debug.BuildSetting, key string) string {
	for _, kv := range settings {
		if key == kv.Key {
			return kv.Value
		}
	}

	return ""
}
