// Package env expands {{variable}} references in jsoncall settings.
//
// Values come from .env files, the process environment ({{$NAME}}) and a few
// dynamic values such as {{$uuid}} and {{$timestamp}}. Unresolved references
// are left in place so a missing secret is visible in the request.
package env
