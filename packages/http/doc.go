// Package http provides the cookie-aware fetch client of hitfetch.
//
// It wraps the standard library's http package with additional features:
//   - Cookie persistence to a JSON file after every request
//   - Manual 301/302 redirect following that records the visited URLs
//   - Query, form, multipart and JSON request bodies
//   - Response charset conversion and JSON decoding
//   - Optional rate limiting shared by all requests of a client
package http
