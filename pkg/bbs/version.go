package bbs

var (
	Version     = "v0.0.0-in-progress"
	UpstreamSHA = "unknown"
)

// WrapperVersion returns the semantic version populated at build time via
// ldflags. In development it defaults to v0.0.0-in-progress.
func WrapperVersion() string {
	return Version
}

// UpstreamVersion returns the pinned commit SHA of the native bbs library the
// bindings were generated against.
func UpstreamVersion() string {
	return UpstreamSHA
}
