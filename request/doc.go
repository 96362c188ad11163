// Copyright 2023 The onion Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package request contains the value types a policy chain operates on:
// the Request description travelling down the chain and the Response
// result travelling back up, along with the ProxyConfig attached to a
// routed request.
//
// Requests are immutable by convention. A policy that changes a field
// clones the request and forwards the clone, so the original request
// stays intact for replay and debugging.
package request
