// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package options

import "iter"

// Apply yields every non-nil option of type T found in the given option sets,
// in order. Options of other types are skipped, which lets one option value
// implement several option interfaces.
func Apply[T, O any](sets ...[]O) iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, set := range sets {
			for _, opt := range set {
				op, ok := any(opt).(T)
				if !ok || any(op) == nil {
					continue
				}
				if !yield(op) {
					return
				}
			}
		}
	}
}
