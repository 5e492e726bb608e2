// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package sftpclient

import (
	"bytes"
	"context"
	"errors"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddr(t *testing.T) {
	assert.Equal(t, "files.example.edu:22", Config{Host: "files.example.edu"}.Addr())
	assert.Equal(t, "files.example.edu:2222", Config{Host: "files.example.edu", Port: 2222}.Addr())
	assert.Equal(t, "[::1]:22", Config{Host: "::1"}.Addr())
}

func TestUploadBytesValidation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name          string
		cfg           Config
		remotePath    string
		errorContains string
	}{
		{
			name:          "missing credentials",
			cfg:           Config{},
			remotePath:    "/in/courses.json",
			errorContains: "host, user and password are required",
		},
		{
			name:          "missing remote path",
			cfg:           Config{Host: "h", User: "u", Pass: "p"},
			errorContains: "remote path is required",
		},
		{
			name: "unreadable known_hosts",
			cfg: Config{
				Host:       "h",
				User:       "u",
				Pass:       "p",
				KnownHosts: filepath.Join(t.TempDir(), "missing_known_hosts"),
			},
			remotePath:    "/in/courses.json",
			errorContains: "load known_hosts",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := UploadBytes(ctx, tt.cfg, tt.remotePath, []byte("[]"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorContains)
		})
	}
}

func TestUploadBytes_DialError(t *testing.T) {
	// Grab a free port and release it so nothing is listening there.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	cfg := Config{
		Host:                  "127.0.0.1",
		Port:                  port,
		User:                  "u",
		Pass:                  "p",
		InsecureIgnoreHostKey: true,
		Timeout:               2 * time.Second,
	}
	err = UploadBytes(context.Background(), cfg, "/in/courses.json", []byte("[]"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sftp: dial error")
}

type fakeConn struct {
	bytes.Buffer
	closed   chan struct{}
	writeErr error
	closeErr error
}

func newFakeConn() *fakeConn { return &fakeConn{closed: make(chan struct{})} }

func (c *fakeConn) Write(p []byte) (int, error) {
	if c.writeErr != nil {
		return 0, c.writeErr
	}
	return c.Buffer.Write(p)
}

func (c *fakeConn) Close() error {
	close(c.closed)
	return c.closeErr
}

func TestAwaitDial_CancelClosesLateConnection(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	conn := newFakeConn()
	release := make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := awaitDial(ctx, func() (*fakeConn, error) {
			<-release
			return conn, nil
		})
		done <- err
	}()

	cancel()
	err := <-done
	require.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "sftp: dial canceled")

	// The dial finishes after the caller gave up.
	close(release)
	select {
	case <-conn.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("late connection was not closed")
	}
}

func TestAwaitDial(t *testing.T) {
	conn := newFakeConn()
	got, err := awaitDial(context.Background(), func() (*fakeConn, error) { return conn, nil })
	require.NoError(t, err)
	assert.Same(t, conn, got)

	_, err = awaitDial(context.Background(), func() (*fakeConn, error) { return nil, errors.New("refused") })
	assert.ErrorContains(t, err, "sftp: dial error: refused")
}

func TestWriteAndClose(t *testing.T) {
	tests := []struct {
		name          string
		conn          *fakeConn
		errorContains string
	}{
		{name: "ok", conn: newFakeConn()},
		{name: "close error is returned", conn: &fakeConn{closed: make(chan struct{}), closeErr: errors.New("quota exceeded")}, errorContains: "sftp: close remote file: quota exceeded"},
		{name: "write error still closes", conn: &fakeConn{closed: make(chan struct{}), writeErr: errors.New("broken pipe")}, errorContains: "sftp: upload copy: broken pipe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := writeAndClose(tt.conn, []byte(`[{"code":"CSC 216"}]`))
			if tt.errorContains != "" {
				assert.ErrorContains(t, err, tt.errorContains)
			} else {
				require.NoError(t, err)
				assert.Equal(t, `[{"code":"CSC 216"}]`, tt.conn.String())
			}
			assert.Eventually(t, func() bool {
				select {
				case <-tt.conn.closed:
					return true
				default:
					return false
				}
			}, time.Second, 10*time.Millisecond)
		})
	}
}
