//go:build darwin

package profilewrap

// maxrssBytes: ru_maxrss is already reported in bytes on Darwin.
func maxrssBytes(ruMaxrss int64) int64 {
	return ruMaxrss
}
