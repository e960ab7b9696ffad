//go:build simplpool_debug

package simplpool

import "fmt"

// assertf panics with a formatted message when cond is false. Only compiled
// in under the simplpool_debug build tag; see assert_release.go for the
// release no-op.
func assertf(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("simplpool: assertion failed: "+format, args...))
	}
}
