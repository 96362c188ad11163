// Copyright 2023 The onion Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package onion provides a composable HTTP client runtime: a request
travels through an ordered chain of independent policies before
reaching a caller-supplied transport function that performs the actual
network I/O.

Create a Chain to begin making requests.

	chain := &onion.Chain{
		Policies: []onion.Policy{
			redirect.Default,
			retry.Default,
		},
	}
	req, err := request.New("GET", "https://www.example.com", nil)
	...
	resp, err := chain.Do(req)

Each policy is a value with a single capability, Apply(req, next),
where next is the remainder of the chain. Policies compose by
wrapping: the first policy declared runs first on the way in and last
on the way out. Compose nests policies explicitly; Chain does it for
you and adds a default transport.

The protocol policies live in their own packages: redirect (redirect
following with loop detection), ratelimit (Retry-After delay
strategy), proxy (explicit and environment proxy resolution with
NO_PROXY bypass), ranges (Range/resume headers and Content-Range
parsing), progress (upload/download instrumentation), retry (generic
attempt retry), and timeout (per-attempt timeouts). The body package
serializes structured payloads, including validated multipart forms,
and the sse package decodes Server-Sent-Events streams.

To see how a chain is put together, render it as a tree:

	fmt.Println(chain.Tree())

Policies built by this module attach their name, kind, and options via
Named, so the tree shows composition order and configuration at a
glance.
*/
package onion
