// Package cookies provides a cookie jar that can be persisted to disk.
//
// The jar delegates matching and sending to net/http/cookiejar and keeps a
// parallel record of every accepted cookie so that sessions survive between
// process runs. Cookie files are JSON documents with a version and a sorted
// list of cookies.
package cookies
