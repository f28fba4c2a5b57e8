// Package pool provides the reference engine: a fixed set of workers draining
// a FIFO queue. Cancellation is cooperative. A task cancelled while queued is
// dropped without running, and a running task only stops early if its body
// honors the context it is given.
package pool
