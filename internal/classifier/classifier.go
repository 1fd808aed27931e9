// Package classifier maps file names and declared content types onto the
// file kinds and storage categories used by the file manager.
package classifier

import (
	"strings"

	"filevault-backend/internal/models"
)

var (
	imageExtensions = map[string]struct{}{
		"jpg": {}, "jpeg": {}, "png": {}, "gif": {}, "svg": {}, "webp": {},
	}
	audioExtensions = map[string]struct{}{
		"mp3": {}, "wav": {}, "ogg": {}, "aac": {}, "m4a": {},
	}
	videoExtensions = map[string]struct{}{
		"mp4": {}, "webm": {}, "mov": {}, "avi": {}, "mkv": {},
	}

	mimeCategories = map[string]models.Category{
		"image":       models.CategoryImages,
		"audio":       models.CategoryAudios,
		"video":       models.CategoryVideos,
		"application": models.CategoryDocuments,
		"text":        models.CategoryDocuments,
	}
)

// Extension returns the lower-cased text after the last dot of fileName, or
// "" when there is no dot.
func Extension(fileName string) string {
	i := strings.LastIndex(fileName, ".")
	if i < 0 {
		return ""
	}
	return strings.ToLower(fileName[i+1:])
}

// ByName classifies a file by its extension. Anything that is not a known
// image, audio or video extension is a document.
func ByName(fileName string) models.FileType {
	ext := Extension(fileName)
	if _, ok := imageExtensions[ext]; ok {
		return models.FileTypeImage
	}
	if _, ok := audioExtensions[ext]; ok {
		return models.FileTypeAudio
	}
	if _, ok := videoExtensions[ext]; ok {
		return models.FileTypeVideo
	}
	return models.FileTypeDocument
}

// MimeMajor returns the major type of a content type, e.g. "image" for
// "image/png; charset=binary".
func MimeMajor(contentType string) string {
	major, _, _ := strings.Cut(contentType, "/")
	return strings.ToLower(strings.TrimSpace(major))
}

// ByMime resolves the storage category for a MIME major type. The second
// result is false when the major type has no category.
func ByMime(mimeMajor string) (models.Category, bool) {
	c, ok := mimeCategories[mimeMajor]
	return c, ok
}
