// Package theme resolves the external theme an image inherits from.
//
// Two concerns live here. [Inheritance] renders the derived site
// configuration whose first line points the static-site generator at a base
// configuration shipped by the theme ("INHERIT: <path>"). [Snapshot] clones
// or updates the upstream theme repository at a pinned ref and reports the
// resolved commit, which the publisher uses as an image tag.
package theme
