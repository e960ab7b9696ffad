//go:build !simplpool_debug

package simplpool

// assertf is a no-op in release builds (simplpool_debug not set).
func assertf(cond bool, format string, args ...any) {}
