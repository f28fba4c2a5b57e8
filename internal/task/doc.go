// Package task defines units of deferred work, the engine-side Future that
// tracks a submitted task until it reaches a terminal outcome, the error
// taxonomy shared by engines and executors, and the status events engines
// emit while tasks move through their lifecycle.
package task
