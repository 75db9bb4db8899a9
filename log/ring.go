// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package log

import "strings"

// DefaultRingSize is the number of lines kept when no size is given
const DefaultRingSize = 1000

// Ring keeps the last lines written to it.
// Offsets are absolute: they keep growing as lines are written, so a reader can resume
// from the offset it last received even after older lines were evicted.
// Ring is not safe for concurrent use, its owner is expected to serialize accesses.
type Ring struct {
	lines   []string
	start   int // index of the oldest line once the ring is full
	size    int
	dropped int
}

// NewRing returns a ring keeping at most size lines
func NewRing(size int) *Ring {
	if size <= 0 {
		size = DefaultRingSize
	}

	return &Ring{size: size}
}

// Append splits the given chunk into lines and stores them, overwriting the oldest ones when full
func (r *Ring) Append(chunk string) {
	for _, line := range strings.Split(strings.TrimRight(chunk, "\n"), "\n") {
		if line == "" {
			continue
		}

		if len(r.lines) < r.size {
			r.lines = append(r.lines, line)

			continue
		}

		r.lines[r.start] = line
		r.start = (r.start + 1) % r.size
		r.dropped++
	}
}

// Since returns the lines written at or after the given absolute offset, and the offset to resume from
func (r *Ring) Since(offset int) ([]string, int) {
	end := r.Len()

	if offset < r.dropped {
		offset = r.dropped
	}

	if offset >= end {
		return []string{}, end
	}

	lines := make([]string, 0, end-offset)
	for i := offset - r.dropped; i < len(r.lines); i++ {
		lines = append(lines, r.lines[(r.start+i)%len(r.lines)])
	}

	return lines, end
}

// Len returns the total number of lines ever written
func (r *Ring) Len() int {
	return r.dropped + len(r.lines)
}
