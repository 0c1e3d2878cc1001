// Package cache holds decoded audio buffers keyed by file id.
//
// Each file gets at most one forward load; concurrent and repeated requests
// share the same token. Tokens carry pre-allocated silence buffers that are
// refilled in place once decoding completes, so a buffer reference handed
// out before the load finished is still the buffer that ends up holding the
// sound. Reversed buffers are derived from forward loads rather than fetched
// on their own.
package cache
