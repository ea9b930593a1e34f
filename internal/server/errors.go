package server

import "go.trai.ch/zerr"

var ErrServer = zerr.New("server error")
