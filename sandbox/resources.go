// Copyright 2026 The Spawn Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseMemory parses an engine memory limit such as "8g", "512M", or a
// plain byte count, returning bytes. Suffixes are binary and case
// insensitive.
func ParseMemory(s string) (uint64, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, fmt.Errorf("invalid memory limit %q: empty", s)
	}

	var multiplier uint64 = 1
	numStr := trimmed
	switch trimmed[len(trimmed)-1] {
	case 'k', 'K':
		multiplier = 1 << 10
	case 'm', 'M':
		multiplier = 1 << 20
	case 'g', 'G':
		multiplier = 1 << 30
	case 't', 'T':
		multiplier = 1 << 40
	}
	if multiplier != 1 {
		numStr = trimmed[:len(trimmed)-1]
	}

	value, err := strconv.ParseUint(numStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid memory limit %q: %w", s, err)
	}
	if value == 0 {
		return 0, fmt.Errorf("invalid memory limit %q: must be positive", s)
	}
	if value > (^uint64(0))/multiplier {
		return 0, fmt.Errorf("invalid memory limit %q: overflows", s)
	}
	return value * multiplier, nil
}

// ValidateCPUs rejects CPU counts the engine cannot honour.
func ValidateCPUs(cpus int) error {
	if cpus < 1 {
		return fmt.Errorf("invalid CPU count %d: must be at least 1", cpus)
	}
	return nil
}
