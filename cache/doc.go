// Package cache provides a TTL byte cache used as the backing store for
// probe results and as the target of the cache health probe. Entries expire
// per-key; expired entries are collected lazily on read.
package cache
