// Package errors provides standardized error handling for the chassis
// monitor. It defines the error taxonomy the hotplug engine is built
// around: register I/O failures are transient (the next scheduled cycle
// is the retry mechanism), configuration problems are invalid, and
// nothing produced by the engine is fatal to the process.
//
// Errors carry a classification so callers can decide between retrying,
// degrading and giving up without string matching:
//
//	if err := regs.Read(addr); err != nil {
//	    if errors.IsTransient(err) {
//	        // abort the cycle; the next cycle re-derives state
//	    }
//	}
package errors
