// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package options

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type (
	option interface{ option() }
	named  interface{ name() string }

	withName  string
	withCount int
)

func (withName) option()        {}
func (o withName) name() string { return string(o) }
func (withCount) option()       {}

func TestApplyFiltersByType(t *testing.T) {
	opts := []option{withName("a"), withCount(3), nil, withName("b")}
	rest := []option{withName("c")}

	var got []string
	for o := range Apply[named](opts, rest) {
		got = append(got, o.name())
	}
	require.Equal(t, []string{"a", "b", "c"}, got)
}

func TestApplyStopsEarly(t *testing.T) {
	opts := []option{withName("a"), withName("b")}

	var got []string
	for o := range Apply[named](opts) {
		got = append(got, o.name())
		break
	}
	require.Equal(t, []string{"a"}, got)
}
