//go:build cgo || !(linux || freebsd || openbsd || netbsd || dragonfly)

package clipboard

import "golang.design/x/clipboard"

func backendInit() error {
	return clipboard.Init()
}

func designFormat(f format) clipboard.Format {
	if f == fmtImage {
		return clipboard.FmtImage
	}
	return clipboard.FmtText
}

func writeData(f format, data []byte) error {
	clipboard.Write(designFormat(f), data)
	return nil
}

func readData(f format) ([]byte, error) {
	return clipboard.Read(designFormat(f)), nil
}
