// Package internalcheck provides internal validation and testing utilities.
//
// This package contains source-level policy checks the bbs-go library runs as
// part of its test suite: no hex formatting of secret material and no direct
// byte-slice comparison of key material. It is not intended for external use
// and the API may change without notice.
//
// # Internal Use Only
//
// This package is part of the internal implementation and should not be
// imported by applications using the bbs library. Use the public API provided
// by pkg/bbs instead.
package internalcheck
