//go:build !linux && !darwin

package platform

// CopyFile falls back to read/write on platforms without a faster syscall.
func CopyFile(params CopyParams) (CopyResult, error) {
	preallocate(params.DstFd, params.Size)
	return copyReadWrite(params)
}
