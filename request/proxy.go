// Copyright 2023 The onion Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"net"
	"strconv"
)

// A ProxyConfig describes the proxy a single request is routed
// through. It is resolved once per request, either from explicit
// configuration or from the process environment, attached to the
// request, and never persisted beyond that request.
type ProxyConfig struct {
	// Host is the proxy host name or IP address, without port.
	Host string

	// Port is the proxy TCP port.
	Port int

	// Protocol is the proxy scheme, "http" or "https".
	Protocol string

	// Auth optionally carries proxy credentials. When set, the proxy
	// policy adds a Proxy-Authorization header to the request.
	Auth *ProxyAuth
}

// ProxyAuth carries HTTP Basic credentials for a proxy.
type ProxyAuth struct {
	Username string
	Password string
}

// Address returns the host:port form of the proxy, suitable for
// dialing.
func (p *ProxyConfig) Address() string {
	return net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
}
