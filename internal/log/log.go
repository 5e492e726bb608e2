// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package log

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
)

// InitLogger sets up Apex with a custom handler and a log level from the
// COURSECTL_LOG env variable. Progress messages are Info, so that is the
// default.
func InitLogger() {
	level, err := log.ParseLevel(strings.ToLower(os.Getenv("COURSECTL_LOG")))
	if err != nil {
		level = log.InfoLevel
	}
	log.SetHandler(NewCustomHandler(os.Stderr))
	log.SetLevel(level)
}

// CustomHandler formats log messages and writes them to W. Stdout is left to
// command output.
type CustomHandler struct {
	mu  sync.Mutex
	W   io.Writer
	Now func() time.Time
}

// NewCustomHandler returns a CustomHandler writing to w.
func NewCustomHandler(w io.Writer) *CustomHandler {
	return &CustomHandler{W: w, Now: time.Now}
}

// HandleLog implements the log.Handler interface
func (h *CustomHandler) HandleLog(e *log.Entry) error {
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	timestamp := now().Format("2006-01-02 15:04:05")
	level := strings.ToUpper(e.Level.String())

	var b strings.Builder
	fmt.Fprintf(&b, "%s %.1s %s", timestamp, level, e.Message)

	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, " %s=%v", name, e.Fields[name])
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.W, b.String())
	return err
}
