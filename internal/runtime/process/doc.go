// Package process implements the launcher that runs chain steps as local
// operating system processes.
//
// Children inherit the parent's standard streams, so their output reaches the
// terminal unbuffered and unprefixed. Termination sends SIGTERM to the tracked
// pid only; a child that ignores it keeps running until it exits on its own.
// When the process-group option is enabled every child is started in its own
// process group and the whole group is signaled, which also reaches
// grandchildren on Linux and macOS.
//
// On Windows there is no graceful termination signal for arbitrary processes,
// so Terminate falls back to killing the direct child.
package process
