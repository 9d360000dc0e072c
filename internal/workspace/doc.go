// Package workspace manages the ephemeral sandbox directory of a build and
// copies trees into and out of it.
//
// Every sandbox is named after a fresh build ID (for example
// tars-6f1c2a6e-...) under the system temp directory, is owned by exactly one
// build, and is removed when that build finishes.
package workspace
