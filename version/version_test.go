// Copyright (c) 2017-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package version

import (
	"runtime"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFull(t *testing.T) {
	info := Full()
	assert.Equal(t, dev, info.Version)
	assert.NotEmpty(t, info.Hash)
	assert.NotEmpty(t, info.Date)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Contains(t, info.String(), dev)
}

func TestResolve(t *testing.T) {
	vcs := []debug.BuildSetting{
		{Key: "vcs.revision", Value: "abc123"},
		{Key: "vcs.time", Value: "2024-05-01T10:00:00Z"},
		{Key: "vcs.modified", Value: "true"},
	}

	t.Run("ldflags win", func(t *testing.T) {
		info := resolve("v1.2.3", "deadbeef", "2024-06-01", vcs)
		assert.Equal(t, "v1.2.3", info.Version)
		assert.Equal(t, "deadbeef", info.Hash)
		assert.Equal(t, "2024-06-01", info.Date)
	})

	t.Run("falls back to the vcs stamp", func(t *testing.T) {
		info := resolve("", "", "", vcs)
		assert.Equal(t, dev, info.Version)
		assert.Equal(t, "abc123-dirty", info.Hash)
		assert.Equal(t, "2024-05-01T10:00:00Z", info.Date)
	})

	t.Run("placeholders without any stamp", func(t *testing.T) {
		info := resolve("", "", "", nil)
		assert.Equal(t, unknown, info.Hash)
		assert.Equal(t, unknown, info.Date)
	})
}
