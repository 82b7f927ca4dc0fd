package editor

// Error 编辑器操作错误，只影响触发它的那一次操作
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	ErrEmptyClipboard Error = "clipboard has no html or text"
	ErrImageTooLarge  Error = "image too large"
	ErrUploadFailed   Error = "image upload failed"
)
