// Package build turns a site's content, templates and static assets into a
// published output directory.
//
// Every call to Builder.Build runs one session: the inputs are copied into a
// fresh sandbox, pre-hook plugins run, templates and pages are loaded and
// rendered into a staging output inside the sandbox, post-hook plugins run
// and the staging output finally replaces the real output directory. Nothing
// outside the sandbox changes until that last step, so a failed build leaves
// the previous output in place.
package build
