package models

type FileResponse struct {
	FileDescriptor
	SizeLabel string `json:"size_label"`
}

type FilesResponse struct {
	Categories map[Category][]FileResponse `json:"categories"`
	Counts     map[Category]int            `json:"counts"`
	Total      int                         `json:"total"`
	Loading    bool                        `json:"loading"`
	Warnings   []string                    `json:"warnings,omitempty"`
}

type CountsResponse struct {
	Counts map[Category]int `json:"counts"`
	Total  int              `json:"total"`
}

type UploadResponse struct {
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Path     string   `json:"path"`
	Total    int      `json:"total"`
	Warnings []string `json:"warnings,omitempty"`
}

type UploadStatusResponse struct {
	IsUploading bool   `json:"is_uploading"`
	Error       string `json:"error,omitempty"`
}

type ArchiveResponse struct {
	File FileResponse `json:"file"`
}

type ProfileResponse struct {
	ID     string `json:"id"`
	Nombre string `json:"nombre"`
	Email  string `json:"email,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Stage   string `json:"stage,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
