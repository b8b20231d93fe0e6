// Package memory provides the in-memory key-value store for respkv.
//
// A single Store is created at server start and shared by pointer across
// every connection goroutine.
//
// Expiration:
//
// Entries may carry an absolute deadline. Expired entries are removed in two
// ways: lazily, when a read finds the deadline has passed, and actively, by a
// background reaper goroutine that sleeps until the earliest tracked deadline.
// Deadlines are kept in a B-tree ordered by expiry time so the reaper finds
// the next one without scanning the map.
//
// Ownership:
//
// Set copies the value it is given and Get returns the stored slice. Callers
// must not modify a slice returned by Get.
//
// Thread Safety:
//
// All operations go through one mutex. Reads take it as well because a
// lazy-expiry read may delete the entry it finds.
package memory
