// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"testing"
	"time"
)

var fixedNow = time.Date(2024, time.March, 5, 14, 30, 0, 0, time.UTC)

// fixClock pins the generation timestamp for the duration of the test.
func fixClock(t *testing.T) {
	t.Helper()
	prev := now
	now = func() time.Time { return fixedNow }
	t.Cleanup(func() { now = prev })
}

func col(header, key string) Column {
	return Column{Header: header, DataKey: key}
}

func hidden(c Column) Column {
	c.SetIncluded(false)
	return c
}

// bareOptions has no preamble so output starts at the header row.
func bareOptions(cols ...Column) Options {
	opts := DefaultOptions()
	opts.IncludeTimestamp = false
	opts.Columns = cols
	return opts
}

func students() []Row {
	return []Row{
		{"name": StringValue("Alice"), "level": StringValue("B1"), "score": NumberValue(14.5)},
		{"name": StringValue("Bob"), "level": StringValue("A2"), "score": NumberValue(9)},
		{"name": StringValue("Chloé"), "level": StringValue("B1"), "score": NumberValue(17)},
	}
}
