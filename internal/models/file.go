package models

import "time"

// Category is a fixed storage partition. Each category is backed by its own
// bucket in the object storage service.
type Category string

const (
	CategoryDocuments Category = "documents"
	CategoryImages    Category = "images"
	CategoryAudios    Category = "audios"
	CategoryVideos    Category = "videos"
	CategoryArchived  Category = "archived"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryDocuments,
	CategoryImages,
	CategoryAudios,
	CategoryVideos,
	CategoryArchived,
}

// ParseCategory returns the category named by s.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// FileType is the kind of a file derived from its name. Unlike Category it
// never changes after the descriptor is created.
type FileType string

const (
	FileTypeImage    FileType = "image"
	FileTypeAudio    FileType = "audio"
	FileTypeVideo    FileType = "video"
	FileTypeDocument FileType = "document"
)

// FileDescriptor is one stored object as surfaced to clients.
type FileDescriptor struct {
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Type     FileType `json:"type"`
	URL      string   `json:"url"`

	// Echoed from the storage listing.
	ID        string                 `json:"id,omitempty"`
	Size      int64                  `json:"size"`
	MimeType  string                 `json:"mime_type,omitempty"`
	CreatedAt *time.Time             `json:"created_at,omitempty"`
	UpdatedAt *time.Time             `json:"updated_at,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}
