package theme

import "go.trai.ch/zerr"

var (
	ErrInheritance = zerr.New("invalid inheritance config")
	ErrSnapshot    = zerr.New("theme snapshot failed")
)
