package runtime

import "go.trai.ch/zerr"

var (
	ErrRuntime        = zerr.New("runtime error")
	ErrEmptyIndex     = zerr.New("empty image index")
	ErrEmptyArchive   = zerr.New("archive contains no image")
	ErrMultipleImages = zerr.New("archive contains multiple images")
)
