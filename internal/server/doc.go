// Package server implements the dev server: it builds the site once, serves
// the output directory over HTTP, watches the input trees and rebuilds on
// change, then tells connected browsers to reload.
//
// Four units run under one errgroup: the HTTP accept loop, the filesystem
// watch loop, the rebuild worker and a shutdown watcher. Only the rebuild
// worker touches the Builder, so builds never overlap.
package server
