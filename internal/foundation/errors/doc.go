// Package errors provides the classified error primitives used across tars.
//
// Every failure a build or the dev server can surface maps onto one
// ErrorCategory (config, filesystem, integrity, plugin_not_found,
// plugin_execution, template, conversion, watch, network, ...). Adapters turn
// a classified error into a process exit code for the CLI or a plain text
// response for the dev server.
//
// Example usage:
//
//	err := errors.IntegrityError("plugin failed integrity check").
//		WithContext("plugin", name).
//		WithContext("expected", want).
//		WithContext("actual", got).
//		Build()
package errors
