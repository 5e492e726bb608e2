// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package sftpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// DefaultPort is used when Config.Port is unset.
const DefaultPort = 22

type Config struct {
	Host string
	Port int
	User string
	Pass string

	// KnownHosts is the known_hosts file used to verify the server. Empty
	// means ~/.ssh/known_hosts.
	KnownHosts            string
	InsecureIgnoreHostKey bool
	Timeout               time.Duration
}

// Validate reports missing connection settings.
func (cfg Config) Validate() error {
	if cfg.Host == "" || cfg.User == "" || cfg.Pass == "" {
		return errors.New("sftp: host, user and password are required")
	}
	return nil
}

// Addr returns host:port, defaulting the port.
func (cfg Config) Addr() string {
	port := cfg.Port
	if port <= 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(cfg.Host, strconv.Itoa(port))
}

func (cfg Config) hostKeyCallback() (ssh.HostKeyCallback, error) {
	if cfg.InsecureIgnoreHostKey {
		return ssh.InsecureIgnoreHostKey(), nil //nolint:gosec
	}
	file := cfg.KnownHosts
	if file == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("sftp: locate known_hosts: %w", err)
		}
		file = filepath.Join(home, ".ssh", "known_hosts")
	}
	cb, err := knownhosts.New(file)
	if err != nil {
		return nil, fmt.Errorf("sftp: load known_hosts %s: %w", file, err)
	}
	return cb, nil
}

// UploadBytes writes data to remotePath on the server, creating the parent
// directory if needed.
func UploadBytes(ctx context.Context, cfg Config, remotePath string, data []byte) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if remotePath == "" {
		return errors.New("sftp: remote path is required")
	}

	cb, err := cfg.hostKeyCallback()
	if err != nil {
		return err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	sshCfg := &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            []ssh.AuthMethod{ssh.Password(cfg.Pass)},
		HostKeyCallback: cb,
		Timeout:         timeout,
	}

	sshClient, err := awaitDial(ctx, func() (*ssh.Client, error) {
		return ssh.Dial("tcp", cfg.Addr(), sshCfg)
	})
	if err != nil {
		return err
	}
	defer sshClient.Close()

	sftpCli, err := sftp.NewClient(sshClient)
	if err != nil {
		return fmt.Errorf("sftp: new client: %w", err)
	}
	defer sftpCli.Close()

	if dir := path.Dir(remotePath); dir != "." && dir != "/" {
		if err := sftpCli.MkdirAll(dir); err != nil {
			return fmt.Errorf("sftp: mkdir %s: %w", dir, err)
		}
	}

	dst, err := sftpCli.Create(remotePath)
	if err != nil {
		return fmt.Errorf("sftp: create remote file: %w", err)
	}
	return writeAndClose(dst, data)
}

type dialResult[C io.Closer] struct {
	client C
	err    error
}

// awaitDial runs dial in the background and waits for it or for ctx. A
// connection that completes after ctx is done is closed.
func awaitDial[C io.Closer](ctx context.Context, dial func() (C, error)) (C, error) {
	ch := make(chan dialResult[C], 1)
	go func() {
		c, err := dial()
		ch <- dialResult[C]{client: c, err: err}
	}()

	select {
	case <-ctx.Done():
		go func() {
			if r := <-ch; r.err == nil {
				_ = r.client.Close()
			}
		}()
		var zero C
		return zero, fmt.Errorf("sftp: dial canceled: %w", ctx.Err())
	case r := <-ch:
		if r.err != nil {
			return r.client, fmt.Errorf("sftp: dial error: %w", r.err)
		}
		return r.client, nil
	}
}

// writeAndClose copies data to dst. The remote file is only complete once
// Close succeeds, so its error is returned.
func writeAndClose(dst io.WriteCloser, data []byte) error {
	if _, err := io.Copy(dst, bytes.NewReader(data)); err != nil {
		_ = dst.Close()
		return fmt.Errorf("sftp: upload copy: %w", err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("sftp: close remote file: %w", err)
	}
	return nil
}
