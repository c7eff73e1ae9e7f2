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

package engine

import (
	"fmt"
	"os"
	"sync/atomic"
)

// idGenerator hands out process-unique message ids of the shape
// "yengine.<pid>.<seq>". The pid disambiguates ids across independent
// module processes talking to the same engine; the sequence disambiguates
// calls within one process. Neither needs to survive a restart: message
// ids only correlate a request with its own ack, never outlive the
// connection that produced them.
type idGenerator struct {
	pid int
	seq atomic.Uint64
}

func newIDGenerator() *idGenerator {
	return &idGenerator{pid: os.Getpid()}
}

func (g *idGenerator) next() string {
	seq := g.seq.Add(1) - 1
	return fmt.Sprintf("yengine.%d.%d", g.pid, seq)
}
