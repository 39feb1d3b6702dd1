// Package types provides core domain types used across boardroom.
// This package has ZERO dependencies on other boardroom packages to avoid
// circular imports. All other packages should import types from here.
package types
