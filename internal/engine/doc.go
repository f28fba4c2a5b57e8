// Package engine defines the contract every execution engine must satisfy so
// that application code can depend on it instead of a concrete worker pool,
// together with the lifecycle state type and a registry that resolves engines
// by name.
package engine
