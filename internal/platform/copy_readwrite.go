package platform

import (
	"io"
	"os"
	"sync"
)

const bufferSize = 1 << 20 // 1 MiB

var bufPool = sync.Pool{
	New: func() any {
		b := make([]byte, bufferSize)
		return &b
	},
}

// copyReadWrite copies the whole source file with a pooled buffer.
func copyReadWrite(params CopyParams) (CopyResult, error) {
	srcFd, err := os.Open(params.SrcPath)
	if err != nil {
		return CopyResult{}, err
	}
	defer srcFd.Close()

	bufp := bufPool.Get().(*[]byte)
	defer bufPool.Put(bufp)

	written, err := io.CopyBuffer(params.DstFd, srcFd, *bufp)
	return CopyResult{BytesWritten: written, Method: ReadWrite}, err
}

// CopyReadWrite is the exported version, used by tests to exercise the
// fallback path directly.
func CopyReadWrite(params CopyParams) (CopyResult, error) {
	return copyReadWrite(params)
}
