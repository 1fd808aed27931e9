package models

import "io"

// PendingFile is a local file selected for upload.
type PendingFile struct {
	Name        string
	ContentType string
	Size        int64
	Content     io.Reader
}
