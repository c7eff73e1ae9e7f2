/*
Copyright (c) 2023-2025 Microbus LLC and various contributors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package rand generates short, non-cryptographic random tokens. It is
// not used for message-id correlation (see the engine package's pid+seq
// generator) but backs session/run identifiers that only need to look
// unique to a human reading a log, not to be unguessable.
package rand

import "math/rand/v2"

const (
	alphaNum64 = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	alphaNum32 = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// AlphaNum64 returns a random string of length n drawn from the 62-symbol
// alphabet [a-zA-Z0-9].
func AlphaNum64(n int) string {
	return random(n, alphaNum64)
}

// AlphaNum32 returns a random string of length n drawn from the 36-symbol
// alphabet [A-Z0-9], safe for case-insensitive contexts.
func AlphaNum32(n int) string {
	return random(n, alphaNum32)
}

func random(n int, alphabet string) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[rand.IntN(len(alphabet))]
	}
	return string(b)
}
