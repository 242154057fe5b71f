// Package blocklist maintains the set of hosts the proxy refuses to
// forward to, loaded from a newline-delimited file that is watched and
// hot-reloaded on change.
package blocklist
