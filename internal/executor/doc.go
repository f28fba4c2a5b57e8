// Package executor provides the TaskExecutor facade. An Executor holds one
// engine reference for its whole lifetime and forwards every submission and
// lifecycle command to it, adding typed handles and the bulk invocation
// helpers (SubmitAll, InvokeAll, InvokeAny) on top of the engine contract.
// The facade holds no mutable state of its own.
package executor
