package archive

import "bytes"

// IsBinary reports whether content must be stored base64-encoded.
// Any NUL byte marks the content as binary; empty content is text.
func IsBinary(content []byte) bool {
	return bytes.IndexByte(content, 0) >= 0
}
