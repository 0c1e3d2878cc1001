// Package token implements the per-asset load-state machine: a single-slot
// future tracking one file's fetch+decode lifecycle.
//
// # States
//
//	Unloaded → Loading → Loaded | Rejected
//	   any state ────────────────→ Disposed
//
// Loaded with a nil value means intentional silence and is strictly distinct
// from Rejected, which always carries an error. Disposed is absorbing and
// resolves pending waiters with nil.
//
// # Sharing
//
// The asset cache stores one token per file and hands the same instance to
// every caller, which is what makes concurrent requests for a file collapse
// into a single network fetch.
//
// # Chaining
//
//	tok.Then(func(buf *buffer.Buffer) { ... }).
//	    Catch(func(err error) { ... }).
//	    Finally(func() { ... })
//
// Each chain step returns a child token satisfied from the same settlement.
// A rejection with no Catch in the chain reaches the awaiter as an error;
// it is never silently swallowed.
package token
