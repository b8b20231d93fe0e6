// Package redisserver serves the GET and SET subset of the Redis protocol
// over TCP on top of a shared in-memory store.
//
// A connection handler reads one frame at a time through resp.Conn, turns it
// into a Command with CommandFromFrame and executes it with Apply. Requests
// on one connection are strictly sequential; concurrency comes from running
// one handler goroutine per connection, bounded by Config.MaxConnections.
package redisserver
