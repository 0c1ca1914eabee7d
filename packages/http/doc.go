// Package http is the transport behind jsoncall calls.
//
// Requests carry an ordered header list so that the order in which headers
// were added decides which value wins on the wire. The Client adds
// client-wide defaults, an optional rate limit, redirect and TLS settings,
// and reads each response body in full up to a size limit.
package http
