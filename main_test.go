// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/coursectl/internal/config"
)

func TestMangleArguments(t *testing.T) {
	t.Setenv("COURSECTL_CFG", filepath.Join("testdata", "coursectl.yaml"))
	_, err := config.Load()
	require.NoError(t, err)

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "defaults",
			args: []string{"coursectl", "search", "calculus"},
			want: []string{"coursectl", "search", "--titles", "calculus"},
		},
		{
			name: "named set",
			args: []string{"coursectl", "search", "@wide", "calculus"},
			want: []string{"coursectl", "search", "--attrs", "credits", "-o", "json", "calculus"},
		},
		{
			name: "unknown set",
			args: []string{"coursectl", "search", "-o", "yaml", "@nope"},
			want: []string{"coursectl", "search", "-o", "yaml"},
		},
		{
			name: "no sets for command",
			args: []string{"coursectl", "fetch", "--refresh"},
			want: []string{"coursectl", "fetch", "--refresh"},
		},
		{
			name: "help",
			args: []string{"coursectl", "search", "@wide", "-h"},
			want: []string{"coursectl", "search", "--help"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mangleArguments(tt.args))
		})
	}
}

func TestRealMain_LeavesUserCacheAlone(t *testing.T) {
	userCache := t.TempDir()
	flagDir := filepath.Join(t.TempDir(), "cache")
	t.Setenv("XDG_CACHE_HOME", userCache)
	t.Setenv("COURSECTL_CACHE_DIR", "")
	t.Setenv("COURSECTL_CACHE", "")
	t.Setenv("COURSECTL_CFG", filepath.Join("testdata", "coursectl.yaml"))

	saved := os.Args
	t.Cleanup(func() { os.Args = saved })
	os.Args = []string{"coursectl", "cache", "info", "--cache-dir", flagDir}

	assert.Equal(t, 0, realMain())
	assert.DirExists(t, flagDir, "the fetcher creates the dir it uses")
	assert.NoDirExists(t, filepath.Join(userCache, "coursectl"))
}
