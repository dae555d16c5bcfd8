package cache

import (
	"encoding/json"
	"fmt"
	"time"
)

// Key builds the memoization key for name and args.
func Key(name string, args ...any) string {
	if args == nil {
		args = []any{}
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return name + ":" + fmt.Sprint(args...)
	}
	return name + ":" + string(raw)
}

// Memoize returns the cached result of fn for name and args, computing and
// storing it on a miss. Errors are returned to the caller and never cached.
func Memoize[T any](c *Cache, name string, ttl time.Duration, args []any, fn func() (T, error)) (T, error) {
	key := Key(name, args...)
	if v, ok := c.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}

	result, err := fn()
	if err != nil {
		var zero T
		return zero, err
	}
	c.Set(key, result, ttl)
	return result, nil
}
