// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package xor applies a repeating 64-bit key to byte buffers.
//
// The cipher is a plain XOR with an eight byte key cycled from its least
// significant byte. It has no security properties; it only scrambles.
package xor

import (
	"fmt"
	"strconv"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// KeySize is the number of key bytes cycled over the input.
const KeySize = 8

// ErrInvalidKey is returned when a key string is not a 64-bit hex value.
var ErrInvalidKey = errors.Base("invalid xor key")

// 🔑 Key is a 64-bit XOR key
type Key uint64

// 🔍 ParseKey parses a hexadecimal key string such as "00ff00ff00ff00ff".
// An optional 0x prefix and surrounding whitespace are accepted.
func ParseKey(s string) (Key, error) {
	raw := strings.TrimSpace(s)
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "0x"), "0X")
	if raw == "" {
		return 0, errors.Errorf("%w: empty key %q", ErrInvalidKey, s)
	}

	v, err := strconv.ParseUint(raw, 16, 64)
	if err != nil {
		return 0, errors.Errorf("%w: %q", ErrInvalidKey, s)
	}

	return Key(v), nil
}

// Byte returns the key byte used at offset i. Negative offsets wrap like
// positive ones, so Byte(-1) == Byte(KeySize-1).
func (k Key) Byte(i int) byte {
	return byte(uint64(k) >> (8 * uint(((i%KeySize)+KeySize)%KeySize)))
}

// String returns the key as 16 lowercase hex digits.
func (k Key) String() string {
	return fmt.Sprintf("%016x", uint64(k))
}

// 🔄 Transform returns data XORed with the repeating key. The input is not
// modified. Applying Transform twice with the same key yields the input.
func Transform(data []byte, key Key) []byte {
	out := make([]byte, len(data))
	copy(out, data)
	TransformInPlace(out, key)
	return out
}

// TransformInPlace XORs data with the repeating key without allocating.
func TransformInPlace(data []byte, key Key) {
	var pad [KeySize]byte
	for i := range pad {
		pad[i] = key.Byte(i)
	}
	for i := range data {
		data[i] ^= pad[i%KeySize]
	}
}
