// Package manifest defines the dependency manifest and the build recipe
// data model.
//
// A manifest is the single persistent input to an image build: the site
// identity, the upstream theme repository to inherit from, and an ordered
// list of generator plugins with installer version constraints. Constraints
// are validated syntactically and passed through to the external package
// installer unmodified; docbaked performs no dependency resolution of its
// own.
//
// A [Recipe] is an ordered sequence of stages, each created from a base
// image and populated by steps (shell commands, file copies, literal file
// writes, and modifier steps). Recipes are produced by the variant package
// and executed by the build package.
//
// Example usage:
//
//	m, err := manifest.Load("docbake.yml")
//	if err != nil {
//	    return err
//	}
//
//	lines := m.Requirements("core")
package manifest
