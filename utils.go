/*
 * Copyright (c) 2023-present unTill Pro, Ltd. and Contributors
 *
 * This source code is licensed under the MIT license found in the
 * LICENSE file in the root directory of this source tree.
 */

package pool

import (
	"bytes"
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
)

// Debug-mode borrow tracking over Slot[T]: a package-level registry keyed
// by Acquire call site, with GetObjectsInUse summing per-Pool in-use
// counters across every registered pool.
var (
	m               sync.Mutex
	isDebug         atomic.Bool
	objectsCounters []func() uint64
	objAmounts      = map[string]int{}
)

// GetObjectsInUse returns the total amount of slots currently lent out
// across every Pool that has registered a counter (every Pool does, on
// construction). Useful in tests to assert no slot leaked.
func GetObjectsInUse() uint64 {
	res := uint64(0)
	m.Lock()
	for _, oc := range objectsCounters {
		res += oc()
	}
	m.Unlock()
	return res
}

// RegisterObjectsInUseCounter registers a pool's in-use counter so it is
// considered by GetObjectsInUse(). Called automatically by New/
// NewWithLogger; exported so an unrelated pool implementation can opt in
// to the same global leak-tracking surface.
func RegisterObjectsInUseCounter(oc func() uint64) {
	m.Lock()
	objectsCounters = append(objectsCounters, oc)
	m.Unlock()
}

// PrintNonReleased prints the call sites of slots that were acquired but
// never released. Debug mode must be on (SetDebug(true)) for this to have
// recorded anything.
func PrintNonReleased(w io.Writer) {
	nr := getNonReleased()
	if len(nr) == 0 {
		return
	}
	fmt.Fprintln(w, "slots acquired from pools but not released:")
	for st, amount := range nr {
		st = "\t" + strings.ReplaceAll(st, "\n", "\n\t")
		st = strings.TrimSuffix(st, "\n")
		fmt.Fprintf(w, "%d not released acquired at:\n%s\n", amount, st)
	}
}

// SetDebug switches debug mode. While on, every Acquire/AcquireDeferred
// records its call stack so PrintNonReleased can explain a leak; this
// costs a stack walk per acquire, so it is meant for investigations, not
// production.
func SetDebug(debug bool) {
	isDebug.Store(debug)
}

func trackBorrow(site string) {
	m.Lock()
	objAmounts[site]++
	m.Unlock()
}

func untrackBorrow(site string) {
	if site == "" {
		return
	}
	m.Lock()
	objAmounts[site]--
	m.Unlock()
}

func getNonReleased() map[string]int {
	m.Lock()
	res := map[string]int{}
	for k, v := range objAmounts {
		if v > 0 {
			res[k] = v
		}
	}
	m.Unlock()
	return res
}

func (st stackTrace) string() string {
	buf := bytes.NewBufferString("")
	for _, sf := range st {
		buf.WriteString(fmt.Sprintf("%s\n\t%s:%d\n", sf.fn, sf.file, sf.line))
	}
	return buf.String()
}

func getStackTrace() stackTrace {
	pc := make([]uintptr, 100) // can't estimate
	n := runtime.Callers(4, pc)
	frames := runtime.CallersFrames(pc[:n])
	st := stackTrace{}
	for {
		frame, more := frames.Next()
		st = append(st, stackFrame{
			fn:   frame.Function,
			file: frame.File,
			line: frame.Line,
		})
		if !more {
			break
		}
	}
	return st
}
