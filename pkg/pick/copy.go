package pick

import (
	"io"
	"os"
)

// CopyFunc duplicates src to dst, overwriting dst, and returns the number
// of bytes written.
type CopyFunc func(src, dst string) (int64, error)

// CopyFile is the default CopyFunc. The destination keeps the source's
// permission bits. Copying a file onto itself is a no-op.
func CopyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return 0, err
	}
	if dstInfo, err := os.Stat(dst); err == nil && os.SameFile(info, dstInfo) {
		return info.Size(), nil
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return n, err
}
