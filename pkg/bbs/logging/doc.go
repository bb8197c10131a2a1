// Package logging provides a minimal logging facade for the bbs wrapper.
//
// This package defines a Logger interface that wraps a subset of the standard
// library's log/slog functionality. The interface is intentionally small to
// allow applications to provide custom implementations for testing, redaction,
// or integration with existing logging systems.
//
// # Default Implementation
//
// The package provides a default slog-backed implementation:
//
//	// Use default logger (slog.Default())
//	logger := logging.New(nil)
//
//	// Use custom slog.Logger
//	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})
//	customLogger := logging.New(slog.New(handler))
//
// # Redaction Support
//
//	logger.Debug(ctx, "signed message vector", logging.Redacted("secret_key"))
//	// Logs: secret_key="[redacted]"
//
// # Security Considerations
//
//   - Never log secret keys, blinding factors, or other sensitive material
//   - Use logging.Redacted() to mark sensitive attributes
//   - Be cautious with signatures and proofs (may leak information)
//   - Ensure log storage is secure and access-controlled
package logging
