// Copyright 2023 The onion Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package proxy

import (
	"fmt"
	"os"
	"strings"

	"github.com/gogama/onion"
	"github.com/gogama/onion/request"
)

// FromEnv constructs a policy that resolves the proxy for each
// request from the process environment, the way curl and most Unix
// tooling do.
//
// For an https request the policy consults HTTPS_PROXY first, falling
// back to HTTP_PROXY; for any other scheme it consults HTTP_PROXY
// only. Lowercase variable names are honored as fallbacks for their
// uppercase forms. NO_PROXY (or no_proxy) supplies comma-separated
// bypass patterns with the Bypass grammar.
//
// The environment is read once per request, not cached, so tests and
// long-lived processes observe changes. Because resolution happens at
// request time, an unparseable proxy variable surfaces as a request
// error wrapping ErrInvalidProxyURL rather than a construction error.
func FromEnv() onion.Policy {
	return onion.Named("proxy", "protocol", map[string]interface{}{
		"source": "environment",
	}, onion.PolicyFunc(applyEnv))
}

func applyEnv(req *request.Request, next onion.Next) (*request.Response, error) {
	raw := proxyVar(req.URL.Scheme)
	if raw == "" {
		return next(req)
	}
	patterns := strings.Split(envOr("NO_PROXY", "no_proxy"), ",")
	if Bypass(req.URL.Hostname(), patterns) {
		return next(req)
	}
	cfg, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("onion/proxy: from environment: %w", err)
	}
	return next(route(req, cfg))
}

// proxyVar picks the proxy variable for a request scheme. HTTPS_PROXY
// takes precedence for https URLs.
func proxyVar(scheme string) string {
	if strings.EqualFold(scheme, "https") {
		if v := envOr("HTTPS_PROXY", "https_proxy"); v != "" {
			return v
		}
	}
	return envOr("HTTP_PROXY", "http_proxy")
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return os.Getenv(fallback)
}
