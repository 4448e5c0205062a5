// Package state keeps per-chat conversation sessions in memory.
// It is domain-agnostic: the session payload is a type parameter.
// Sessions live for the process lifetime at most and expire after a period of inactivity.
package state
