// Package storage provides persistence backends for rate-limit window
// state. The memory backend is the default; the SQLite backend keeps
// abuse-escalation counters (consecutive saturated windows) across process
// restarts.
package storage
