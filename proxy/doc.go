// Copyright 2023 The onion Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package proxy resolves the proxy a request should route through,
// either from explicit configuration (New) or from the HTTP_PROXY,
// HTTPS_PROXY, and NO_PROXY environment conventions (FromEnv).
//
// A resolved proxy is attached to the request as a
// request.ProxyConfig for the transport to honor; a request that
// matches a NO_PROXY pattern is forwarded with no proxy attached at
// all, so transports skip proxy routing entirely.
package proxy
