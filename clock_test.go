// Copyright © 2020 Jonathan Whitaker <github@whitaker.io>.
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package dataplane

import "time"

// fakeClock substitutes timeNow with a deterministic clock starting at
// start, and returns a restore func the caller must defer. advanceClock
// moves the substituted clock forward; it is only valid between a
// fakeClock call and its restore.
func fakeClock(start time.Time) (restore func()) {
	original := timeNow
	current := start
	timeNow = func() time.Time { return current }
	return func() { timeNow = original }
}

// advanceClock moves a clock previously installed by fakeClock forward by d.
func advanceClock(d time.Duration) {
	cur := timeNow().Add(d)
	timeNow = func() time.Time { return cur }
}
