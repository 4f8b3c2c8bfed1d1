// Package cache provides a small generic LRU cache.
//
// It backs the memo of compiled channel lambdas: the same lambda source is
// typically assigned again and again as a user toggles encodings, and
// compiling it means a full parse.
//
//	c := cache.New[string, int](64)
//	c.Set("d => d * 2", 1)
//	v, ok := c.Get("d => d * 2")
//
// Cache is safe for concurrent use and must not be copied after creation.
package cache
