// Package fs provides the filesystem abstraction used by local blob stores and
// the dataset converter.
//
//   - [LocalFS]: production implementation on top of the os package
//   - [FaultyFS]: test wrapper that injects write and sync failures
//
// Operations take no context.Context: local filesystem calls are short and not
// interruptible at the syscall level. Remote I/O goes through blobstore.
package fs
