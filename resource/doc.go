// Package resource implements optional governance for memory indexes:
// a hard cap on reserved index memory, admission control for concurrent
// dumps, and a token-bucket throttle for dump IO.
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes:       1 << 30,
//	    MaxConcurrentDumps:     2,
//	    DumpIOLimitBytesPerSec: 64 << 20,
//	})
//
// Memory reservations on the write path use TryAcquireMemory: ingestion is
// never blocked by governance, over-limit growth is reported to the caller
// instead. Dump admission blocks (AcquireDump) because dumps are background
// work.
//
// All methods are nil-receiver safe; passing no controller disables every
// limit.
package resource
