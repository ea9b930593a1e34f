package manifest

import "go.trai.ch/zerr"

var (
	ErrInvalidManifest   = zerr.New("invalid manifest")
	ErrInvalidConstraint = zerr.New("invalid version constraint")
	ErrInvalidSource     = zerr.New("invalid stage source")
)
