// Package ttlcache provides a generic, single-flight-coordinated TTL cache
// (spec §4.1, §4.2) built on github.com/jellydator/ttlcache/v3.
//
// A Cache holds values keyed by string. Reads and misses are coordinated
// through golang.org/x/sync/singleflight so at most one factory invocation
// is in flight per key at a time; concurrent callers for the same key all
// observe the result of that single invocation. Values whose type
// implements Disposer are disposed when evicted, size-bound, deleted, or
// replaced.
//
// A Cache tracks two independent TTL dimensions at once rather than a
// single mode: SlidingTTL resets an entry's deadline to now+SlidingTTL on
// every successful hit, while AbsoluteTTL (cache-wide) and the per-call ttl
// argument to GetOrCreate/GetOrCreateTTLFunc (per-entry) fix a hard cap from
// the entry's creation time that access never extends. An entry's effective
// deadline is always the minimum of whichever dimensions are configured. A
// negative per-call ttl means "construct the value but do not cache it"; a
// zero per-call ttl adds no per-entry cap. A Cache can also be bounded by MaxSize, evicting the least-recently-
// used entry once exceeded.
package ttlcache
