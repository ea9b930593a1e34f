// Package publish drives the release pipeline for a documentation site
// image: snapshot the upstream theme, build the selected variant for every
// target platform, assemble a multi-architecture image index, and push it
// to the registry tagged latest and with the theme snapshot's commit SHA.
package publish
