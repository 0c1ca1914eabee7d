// Package restcall turns a verb, path, query string and optional body into an
// authenticated JSON request, sends it through a Transport, and reduces the
// response into a tagged Result.
//
// A Caller keeps the extra headers registered on it and the error state and
// raw response of the last call. It is not safe for concurrent use; give each
// goroutine its own Caller.
//
// Outcomes of MakeJSONCall:
//   - OutcomeSuccess: 2xx with a parseable JSON body, available as gjson.Result
//   - OutcomeNoContent: 2xx with an empty (or one byte) body, not an error
//   - OutcomeBadStatus: any status outside 200-299
//   - OutcomeParseFailure: 2xx with a body that is not JSON
//   - OutcomeTransportFailure: the transport returned no response
//   - OutcomeNotSent: the request was never dispatched, e.g. a required token
//     was unavailable
package restcall
