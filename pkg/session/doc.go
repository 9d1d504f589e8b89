/*
Package session serializes access to stored attempts.

A Manager wraps a ports.StateStore with per-attempt mutexes, garbage collected by
reference counting, and optionally a ports.DistributedLocker so that several server
replicas never interleave a load-modify-save cycle on the same attempt.
*/
package session
