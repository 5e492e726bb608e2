// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package httpx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// HTTPError carries status/body for non-2xx responses.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error: %s %s status=%d body=%s", e.Method, e.URL, e.StatusCode, Snippet(e.Body, 300))
}

// Snippet trims b and cuts it to max bytes for log and error messages.
func Snippet(b []byte, max int) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// Do executes req once with client and returns the decoded body. The body is
// always fully read so the connection can be reused. Non-2xx statuses come
// back as *HTTPError together with the response and body.
func Do(ctx context.Context, client *http.Client, req *http.Request) (*http.Response, []byte, error) {
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to execute request: %w", err)
	}

	raw, err := readAndClose(resp.Body)
	if err != nil {
		return resp, nil, fmt.Errorf("failed to read response: %w", err)
	}

	body, err := DecodeBody(resp.Header.Get("Content-Encoding"), raw)
	if err != nil {
		return resp, raw, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp, body, &HTTPError{
			Method:     req.Method,
			URL:        req.URL.String(),
			StatusCode: resp.StatusCode,
			Header:     resp.Header.Clone(),
			Body:       body,
		}
	}

	return resp, body, nil
}

func readAndClose(rc io.ReadCloser) ([]byte, error) {
	defer rc.Close()
	return io.ReadAll(rc)
}

// DecodeBody reverses the Content-Encoding header value applied to body.
// Encodings are listed in the order they were applied, so they are undone
// from last to first. An empty header or "identity" leaves body untouched.
func DecodeBody(contentEncoding string, body []byte) ([]byte, error) {
	if contentEncoding == "" || len(body) == 0 {
		return body, nil
	}

	codings := strings.Split(contentEncoding, ",")
	for i := len(codings) - 1; i >= 0; i-- {
		coding := strings.ToLower(strings.TrimSpace(codings[i]))

		var err error
		switch coding {
		case "", "identity":
			continue
		case "gzip", "x-gzip":
			body, err = gunzip(body)
		case "deflate":
			body, err = inflate(body)
		case "br":
			body, err = io.ReadAll(brotli.NewReader(bytes.NewReader(body)))
		case "zstd":
			body, err = unzstd(body)
		default:
			return nil, fmt.Errorf("unsupported content encoding %q", coding)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s body: %w", coding, err)
		}
	}

	return body, nil
}

func gunzip(b []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// inflate handles both zlib-wrapped deflate (what the RFC says) and raw
// deflate (what some servers send).
func inflate(b []byte) ([]byte, error) {
	if zr, err := zlib.NewReader(bytes.NewReader(b)); err == nil {
		defer zr.Close()
		if out, err := io.ReadAll(zr); err == nil {
			return out, nil
		}
	}
	fr := flate.NewReader(bytes.NewReader(b))
	defer fr.Close()
	out, err := io.ReadAll(fr)
	if err != nil {
		return nil, errors.Join(errors.New("neither zlib nor raw deflate"), err)
	}
	return out, nil
}

func unzstd(b []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(b, nil)
}
