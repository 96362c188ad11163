// Copyright 2023 The onion Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package onion

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/gogama/onion/request"
)

// Meta carries the introspection metadata attached to a policy with
// Named: a human-readable name, a coarse kind (for example "protocol"
// or "instrumentation"), and the configuration options the policy was
// built with.
type Meta struct {
	Name    string
	Kind    string
	Options map[string]interface{}
}

// Named attaches introspection metadata to a policy. The returned
// policy behaves identically to p; the metadata is only consulted by
// Tree. Policy constructors in this module wrap their product with
// Named so composed chains render usefully.
func Named(name, kind string, options map[string]interface{}, p Policy) Policy {
	if p == nil {
		panic("onion: nil policy")
	}
	return &named{
		meta:   Meta{Name: name, Kind: kind, Options: options},
		policy: p,
	}
}

type named struct {
	meta   Meta
	policy Policy
}

func (n *named) Apply(req *request.Request, next Next) (*request.Response, error) {
	return n.policy.Apply(req, next)
}

// Tree renders a composed policy as a human-readable nested tree
// showing composition order and each named policy's declared options.
//
// Composition order reads top to bottom: the first child of a compose
// node is the outermost policy. Option values that are not primitives
// (notably functions) are stringified as their Go type, so the
// rendered tree stays serializable. Policies without metadata render
// by their dynamic type.
func Tree(p Policy) string {
	var b strings.Builder
	writeTree(&b, p, 0)
	return b.String()
}

func writeTree(b *strings.Builder, p Policy, depth int) {
	pad := strings.Repeat("  ", depth)
	switch x := p.(type) {
	case composite:
		fmt.Fprintf(b, "%scompose:\n", pad)
		for _, child := range x {
			writeTree(b, child, depth+1)
		}
	case *named:
		fmt.Fprintf(b, "%s%s (%s):\n", pad, x.meta.Name, x.meta.Kind)
		keys := make([]string, 0, len(x.meta.Options))
		for k := range x.meta.Options {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(b, "%s  %s: %s\n", pad, k, formatOption(x.meta.Options[k]))
		}
		if inner, ok := x.policy.(composite); ok {
			for _, child := range inner {
				writeTree(b, child, depth+1)
			}
		}
	default:
		fmt.Fprintf(b, "%s%T\n", pad, p)
	}
}

func formatOption(v interface{}) string {
	if v == nil {
		return "nil"
	}
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return fmt.Sprintf("%v", v)
	case reflect.String:
		return fmt.Sprintf("%q", v)
	default:
		// Functions, maps, structs, channels: the type, not the value,
		// keeps the tree serializable.
		return fmt.Sprintf("%T", v)
	}
}
