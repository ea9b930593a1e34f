package build

import "go.trai.ch/zerr"

var (
	ErrBuild               = zerr.New("build failed")
	ErrFileSystemOperation = zerr.New("file system operation failed")
	ErrCopy                = zerr.New("copy failed")
	ErrCommandFailed       = zerr.New("command failed")
)
