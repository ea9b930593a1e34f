package runtime

import (
	"io"
	"sync"
)

// Wraps a reader so the caller learns when it has been fully drained.
//
// Exec streams literal file bodies (the rendered requirements file, the
// derived site config) into container processes over a FIFO that the
// containerd shim holds open on both ends. The shim never propagates EOF on
// its own, so the writer side needs this signal to close the process stdin
// explicitly.
//
// The returned channel is closed exactly once on the first [io.EOF] and is
// safe to observe from multiple goroutines. Non-EOF errors pass through
// without closing it.
func notifyEOF(r io.Reader) (io.Reader, <-chan struct{}) {
	n := &eofNotifier{r: r, drained: make(chan struct{})}
	return n, n.drained
}

type eofNotifier struct {
	r       io.Reader
	once    sync.Once
	drained chan struct{}
}

func (n *eofNotifier) Read(p []byte) (int, error) {
	read, err := n.r.Read(p)
	if err == io.EOF {
		n.once.Do(func() { close(n.drained) })
	}
	return read, err
}
