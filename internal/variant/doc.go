// Package variant defines the predefined image build recipes.
//
// Three variants exist: "full" installs every plugin group on a Debian-based
// generator image with the system libraries the imaging plugins need,
// "hardened" builds the plugin environment in a transient stage and copies
// only the virtualenv into a minimal runtime base, and "slim" installs the
// core plugin group on the minimal base directly.
//
// A variant resolves a dependency manifest into a concrete recipe: rendered
// installer requirements, the derived inheritance config, environment
// pass-throughs, a generator smoke test, and the OCI metadata stamped on the
// exported image. Variants differ only in base images and stage layering;
// the resolution logic is shared.
package variant
