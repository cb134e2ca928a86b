// Copyright 2023 Paolo Fabio Zaino
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

package extractor

import "math/rand"

// antiDuplicateBound is the exclusive upper bound of the anti-duplicates
// nonce's uniform distribution.
const antiDuplicateBound = 10_000_000

// defaultAntiDuplicates draws the per-message anti-duplicates nonce. It
// is the one deliberately non-deterministic value the extractor
// produces. math/rand is fine here for non-security-sensitive jitter;
// the nonce only needs to make repeat deliveries of an identical
// payload distinguishable downstream, not resist prediction.
func defaultAntiDuplicates() int {
	return rand.Intn(antiDuplicateBound)
}
