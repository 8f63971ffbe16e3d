// Package clientip resolves the address of the client behind trusted proxies
// and exposes it to handlers and log records.
package clientip
