//go:build !cgo || windows

package backend

// Default reports that the native bindings are unavailable. The package still
// compiles so that downstream projects (and the mock-backed tests) do not
// require cgo.
func Default() (API, error) {
	return nil, ErrNotBuilt
}
