// Package runtime manages containers backed by containerd.
//
// A [Runtime] connects to a containerd daemon and provides image pull,
// archive import, container creation, and registry push. Base images are
// pulled by reference or imported from OCI archives, unpacked for the
// target platform, and used to create build containers with overlayfs
// snapshots.
//
// Each [Container] wraps a running containerd task. Commands can be
// executed inside the container, files can be copied in and out as tar
// streams, and the final filesystem state can be committed and exported
// as a new OCI archive with the image configuration the recipe declares.
// When the container is no longer needed it should be destroyed to release
// its snapshot and task resources.
//
// Example usage:
//
//	rt, err := runtime.New("/run/containerd/containerd.sock", "docbaked")
//	if err != nil {
//	    return err
//	}
//	defer rt.Close()
//
//	ctr, err := rt.StartFromImage(ctx, "docker.io/library/python:3.12-slim", "bake-1", "linux/amd64")
//	if err != nil {
//	    return err
//	}
//	defer ctr.Destroy(ctx)
//
//	result, err := ctr.Exec(ctx, "/bin/sh", "pip install -r /tmp/requirements.txt", nil, "")
//	if err != nil {
//	    return err
//	}
//
//	if err := ctr.Export(ctx, "output", runtime.ImageMeta{Entrypoint: []string{"mkdocs"}}); err != nil {
//	    return err
//	}
package runtime
