/*
 * Copyright (c) 2023-present unTill Pro, Ltd. and Contributors
 *
 * This source code is licensed under the MIT license found in the
 * LICENSE file in the root directory of this source tree.
 */

package pool

import "errors"

// ErrUnavailable is returned by Acquire/AcquireDeferred while the pool is in
// the Unavailable state. The recovery probe's internal acquire also returns
// it, and the probe swallows it, when no slot can be obtained.
var ErrUnavailable = errors.New("pool: unavailable")

// ErrTimeout is returned by Acquire when a blocking wait abandons without
// obtaining a slot and the Policy has ThrowOnGetTimeout set. Otherwise the
// acquire returns a nil Slot and no error.
var ErrTimeout = errors.New("pool: get timeout")

// ErrQueueFull is returned by AcquireDeferred when Policy.AsyncGetCapacity
// is non-zero and the deferred waiter queue is already holding capacity-1
// entries.
var ErrQueueFull = errors.New("pool: deferred queue full")

// ErrForeignSlot is the panic value Release raises when the slot being
// returned does not belong to the pool it is being released to -- a
// programmer error, not a runtime condition worth a normal error return.
var ErrForeignSlot = errors.New("pool: slot does not belong to this pool")
