// Copyright 2023 The onion Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package ranges builds Range headers for partial and resumed
// downloads and parses Content-Range responses per the HTTP
// range-request grammar.
package ranges
