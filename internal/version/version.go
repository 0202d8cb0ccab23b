// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package version // import "feedviewer.app/v1/internal/version"

import (
	"fmt"
	"runtime"
)

const devVersion = "Development Version"

// Variables populated at build time when using LD_FLAGS.
var (
	Commit    = "Unknown (built outside VCS)"
	BuildDate = "Unknown (built outside VCS)"
	Version   = devVersion
)

// Info describes the running binary.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Compiler  string `json:"compiler"`
	Arch      string `json:"arch"`
	OS        string `json:"os"`
}

func New() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Compiler:  runtime.Compiler,
		Arch:      runtime.GOARCH,
		OS:        runtime.GOOS,
	}
}

// Development returns true for binaries built without version ldflags.
func (self Info) Development() bool { return self.Version == devVersion }

func (self Info) String() string {
	return fmt.Sprintf(
		"Version: %s\nCommit: %s\nBuild Date: %s\nGo Version: %s\nCompiler: %s\nArch: %s\nOS: %s\n",
		self.Version, self.Commit, self.BuildDate, self.GoVersion, self.Compiler,
		self.Arch, self.OS)
}
