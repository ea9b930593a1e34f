package variant

import (
	"strings"

	"github.com/docbake/docbaked/internal/manifest"
	"github.com/docbake/docbaked/internal/theme"
	"go.trai.ch/zerr"
)

const (

	// Binary of the static-site generator installed from the manifest. The
	// verification step and the image entrypoint both invoke it.
	generatorBin = "mkdocs"

	// Where the rendered requirements file is placed inside build containers.
	requirementsPath = "/opt/docbaked/requirements.txt"

	// Virtualenv path shared between the builder and runtime stages of the
	// hardened variant.
	venvPath = "/opt/venv"

	// Install path for the browser automation tooling used by the social
	// card plugins. Passed through to the image unmodified.
	browsersPath = "/opt/browsers"

	// Port the generator's preview server listens on.
	sitePort = "8000/tcp"
)

var ErrUnknownVariant = zerr.New("unknown variant")

// A predefined build recipe shape.
//
// Variants differ in base images, stage layering, and which package groups
// they install; everything else about recipe resolution is shared.
type Variant struct {
	Name        string
	Description string

	base        string   // Base image for the (builder) stage.
	runtimeBase string   // Runtime base for two-stage variants. Empty means single stage.
	groups      []string // Package groups installed into the image.
	systemSetup []string // Shell commands run before the installer (system libraries).
}

// The three supported variants, in documentation order.
var variants = []Variant{
	{
		Name:        "full",
		Description: "every plugin group plus the system libraries for image processing",
		base:        "docker.io/library/python:3.12-slim",
		groups:      []string{manifest.DefaultGroup, "extras"},
		systemSetup: []string{
			"apt-get update && apt-get install -y --no-install-recommends git libcairo2 libfreetype6-dev libjpeg-dev libpng-dev pngquant && rm -rf /var/lib/apt/lists/*",
		},
	},
	{
		Name:        "hardened",
		Description: "plugins built in a transient stage, minimal runtime base",
		base:        "docker.io/library/python:3.12-slim",
		runtimeBase: "docker.io/library/python:3.12-alpine",
		groups:      []string{manifest.DefaultGroup, "extras"},
	},
	{
		Name:        "slim",
		Description: "core plugin group only on the minimal base",
		base:        "docker.io/library/python:3.12-alpine",
		groups:      []string{manifest.DefaultGroup},
	},
}

// Returns the variant names in documentation order.
func Names() []string {
	names := make([]string, len(variants))
	for i, v := range variants {
		names[i] = v.Name
	}
	return names
}

// Returns the variant with the given name.
func Select(name string) (*Variant, error) {
	for i := range variants {
		if variants[i].Name == name {
			return &variants[i], nil
		}
	}
	return nil, zerr.With(zerr.Wrap(ErrUnknownVariant, "valid names: "+strings.Join(Names(), ", ")), "name", name)
}

// Resolves the manifest into a concrete build recipe for this variant.
func (v *Variant) Recipe(m *manifest.Manifest) (*manifest.Recipe, error) {
	requirements := m.RequirementsFile(v.groups...)
	if requirements == "" {
		return nil, zerr.Wrap(manifest.ErrInvalidManifest, "manifest selects no packages for variant "+v.Name)
	}

	inherit, err := theme.FromSite(m.Site).Render()
	if err != nil {
		return nil, err
	}

	recipe := &manifest.Recipe{Image: v.imageMeta(m)}

	if v.runtimeBase == "" {
		recipe.Stages = []manifest.Stage{v.singleStage(requirements, inherit)}
	} else {
		recipe.Stages = v.twoStages(requirements, inherit)
	}

	return recipe, nil
}

// Builds the one-stage layout: system setup, install, config write, verify.
func (v *Variant) singleStage(requirements, inherit string) manifest.Stage {
	steps := []manifest.Step{
		{Env: installerEnv()},
	}
	for _, cmd := range v.systemSetup {
		steps = append(steps, manifest.Step{Run: cmd})
	}
	steps = append(steps,
		manifest.Step{Write: requirements, Dest: requirementsPath},
		manifest.Step{Run: "pip install --no-cache-dir -r " + requirementsPath},
		manifest.Step{Write: inherit, Dest: theme.ConfigPath},
		verifyStep(),
	)

	return manifest.Stage{From: v.base, Steps: steps}
}

// Builds the two-stage layout: a transient builder stage installs the
// packages into a virtualenv, and the runtime stage receives only the
// virtualenv via a cross-stage copy.
func (v *Variant) twoStages(requirements, inherit string) []manifest.Stage {
	builder := manifest.Stage{
		Name:      "builder",
		From:      v.base,
		Transient: true,
		Steps: []manifest.Step{
			{Env: installerEnv()},
			{Run: "python -m venv " + venvPath},
			{Write: requirements, Dest: requirementsPath},
			{Run: venvPath + "/bin/pip install --no-cache-dir -r " + requirementsPath},
		},
	}

	runtime := manifest.Stage{
		From: v.runtimeBase,
		Steps: []manifest.Step{
			{Env: map[string]string{"PATH": venvPath + "/bin:/usr/local/bin:/usr/bin:/bin"}},
			{Copy: "builder:" + venvPath + " " + venvPath},
			{Write: inherit, Dest: theme.ConfigPath},
			verifyStep(),
		},
	}

	return []manifest.Stage{builder, runtime}
}

// Environment applied while the installer runs.
func installerEnv() map[string]string {
	return map[string]string{
		"PIP_NO_CACHE_DIR":              "1",
		"PIP_DISABLE_PIP_VERSION_CHECK": "1",
		"PLAYWRIGHT_BROWSERS_PATH":      browsersPath,
	}
}

// The build-time health check: the generator must start and report its
// version, proving the installed plugin set is importable.
func verifyStep() manifest.Step {
	return manifest.Step{Run: generatorBin + " --version"}
}

// OCI metadata stamped on the exported image.
func (v *Variant) imageMeta(m *manifest.Manifest) manifest.ImageMeta {
	env := []string{"PLAYWRIGHT_BROWSERS_PATH=" + browsersPath}
	if v.runtimeBase != "" {
		env = append(env, "PATH="+venvPath+"/bin:/usr/local/bin:/usr/bin:/bin")
	}

	return manifest.ImageMeta{
		Entrypoint:   []string{generatorBin},
		Cmd:          []string{"serve", "--dev-addr=0.0.0.0:8000", "-f", theme.ConfigPath},
		Env:          env,
		WorkingDir:   "/docs",
		ExposedPorts: []string{sitePort},
		Volumes:      []string{"/docs", "/site"},
		Labels: map[string]string{
			"org.opencontainers.image.title": m.Site.Name,
			"io.docbake.variant":             v.Name,
		},
	}
}
