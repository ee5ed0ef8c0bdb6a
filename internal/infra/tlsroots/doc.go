// Package tlsroots builds the TLS configuration used to reach the
// verification engine: system roots plus an optional private CA, and an
// optional client certificate that is reloaded when its files change.
package tlsroots
