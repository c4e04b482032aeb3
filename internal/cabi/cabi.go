// Package cabi views C-owned memory as Go values for the duration of one
// exported call. Nothing returned here may be retained after the call.
package cabi

import "unsafe"

// Float32s views n floats at p. A nil pointer or non-positive n yields nil.
func Float32s(p unsafe.Pointer, n int) []float32 {
	if p == nil || n <= 0 {
		return nil
	}
	return unsafe.Slice((*float32)(p), n)
}

// Buffer views a caller-owned output buffer of the declared capacity. It
// reports false for a nil pointer or a non-positive capacity.
func Buffer(p unsafe.Pointer, capacity int) ([]byte, bool) {
	if p == nil || capacity <= 0 {
		return nil, false
	}
	return unsafe.Slice((*byte)(p), capacity), true
}

// String copies the NUL-terminated string at p. A nil pointer yields "".
func String(p unsafe.Pointer) string {
	if p == nil {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Add(p, n)) != 0 {
		n++
	}
	return string(unsafe.Slice((*byte)(p), n))
}

// OptionalString is String, except that a nil pointer yields nil.
func OptionalString(p unsafe.Pointer) *string {
	if p == nil {
		return nil
	}
	s := String(p)
	return &s
}

// Strings copies an array of n C string pointers, skipping NULL entries.
func Strings(list unsafe.Pointer, n int) []string {
	if list == nil || n <= 0 {
		return nil
	}
	ptrs := unsafe.Slice((*unsafe.Pointer)(list), n)
	out := make([]string, 0, n)
	for _, p := range ptrs {
		if p != nil {
			out = append(out, String(p))
		}
	}
	return out
}
