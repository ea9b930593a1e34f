package publish

import "go.trai.ch/zerr"

var (
	ErrPublish          = zerr.New("publish failed")
	ErrInvalidReference = zerr.New("invalid image reference")
)
