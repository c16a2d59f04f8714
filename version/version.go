// Copyright (c) 2017-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

const (
	dev     = "v0.1.0-dev"
	unknown = "unknown"
)

// Set with -ldflags "-X github.com/mattermost/mattermost-issuetracker/version.version=..."
var (
	version    string
	commitHash string
	buildDate  string
)

type Info struct {
	Version   string `json:"version"`
	Hash      string `json:"hash"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
}

// Full describes the running binary. Values not provided by ldflags fall
// back to the VCS stamp the go tool embeds, then to placeholders.
func Full() *Info {
	var settings []debug.BuildSetting
	if bi, ok := debug.ReadBuildInfo(); ok {
		settings = bi.Settings
	}
	return resolve(version, commitHash, buildDate, settings)
}

func resolve(ver, hash, date string, settings []debug.BuildSetting) *Info {
	var revision, vcsTime string
	var modified bool
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.time":
			vcsTime = s.Value
		case "vcs.modified":
			modified = s.Value == "true"
		}
	}

	if hash == "" && revision != "" {
		hash = revision
		if modified {
			hash += "-dirty"
		}
	}
	if date == "" {
		date = vcsTime
	}

	info := &Info{Version: ver, Hash: hash, Date: date, GoVersion: runtime.Version()}
	if info.Version == "" {
		info.Version = dev
	}
	if info.Hash == "" {
		info.Hash = unknown
	}
	if info.Date == "" {
		info.Date = unknown
	}
	return info
}

func (i *Info) String() string {
	return fmt.Sprintf("issuetracker %s (commit %s, built %s, %s)", i.Version, i.Hash, i.Date, i.GoVersion)
}
