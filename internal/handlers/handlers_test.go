package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filevault-backend/internal/config"
	"filevault-backend/internal/filemanager"
	"filevault-backend/internal/handlers"
	"filevault-backend/internal/middleware"
	"filevault-backend/internal/models"
	"filevault-backend/internal/services"
	"filevault-backend/internal/storage"
	"filevault-backend/internal/storage/memory"
)

const (
	testSecret = "test-secret-key-for-jwt-signing-must-be-long-enough"
	testUserID = "7b0c6b1e-3a43-4b9f-9b5e-2f7d1f4c9a10"
)

type fakeProfiles struct {
	mu       sync.Mutex
	rows     map[string]*models.UserProfile
	getErr   error
	signOut  error
	signOuts []string
}

func (f *fakeProfiles) GetProfile(_ context.Context, id string) (*models.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.rows[id], nil
}

func (f *fakeProfiles) InsertProfile(_ context.Context, p *models.UserProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[p.ID] = p
	return nil
}

func (f *fakeProfiles) SignOut(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signOuts = append(f.signOuts, token)
	return f.signOut
}

type testServer struct {
	router   *gin.Engine
	objects  *memory.Store
	sessions *filemanager.Sessions
	profiles *fakeProfiles
	token    string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	objects := memory.New("https://proj.supabase.co")
	sessions := filemanager.NewSessions(objects, "3600", logr.Discard())
	profiles := &fakeProfiles{rows: map[string]*models.UserProfile{}}
	profileService := services.NewProfileService(profiles, profiles, logr.Discard())

	files := handlers.NewFilesHandler(sessions, logr.Discard())
	upload := handlers.NewUploadHandler(sessions, 1<<20, logr.Discard())
	profile := handlers.NewProfileHandler(profileService, sessions, logr.Discard())

	router := gin.New()
	router.GET("/health", handlers.HealthHandler)

	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(&config.Config{SupabaseJWTSecret: testSecret}))
	api.Use(middleware.ProfileSync(profileService))
	{
		api.GET("/files", files.ListFiles)
		api.GET("/files/counts", files.GetCounts)
		api.GET("/files/upload-status", upload.UploadStatus)
		api.POST("/files", upload.Upload)
		api.GET("/files/:category/:name", files.GetFile)
		api.DELETE("/files/:category/:name", files.DeleteFile)
		api.POST("/files/:category/:name/archive", files.ArchiveFile)
		api.GET("/profile", profile.GetProfile)
		api.POST("/logout", profile.Logout)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":           testUserID,
		"email":         "ana@example.com",
		"user_metadata": map[string]interface{}{"full_name": "Ana Ruiz"},
		"exp":           time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	return &testServer{
		router:   router,
		objects:  objects,
		sessions: sessions,
		profiles: profiles,
		token:    signed,
	}
}

func (s *testServer) seed(t *testing.T, category models.Category, name, contentType string, data []byte) {
	t.Helper()
	err := s.objects.Upload(context.Background(), category, storage.ObjectPath(testUserID, name), data,
		storage.UploadOptions{ContentType: contentType})
	require.NoError(t, err)
}

func (s *testServer) do(t *testing.T, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req, err := http.NewRequest(method, path, body)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+s.token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func multipartBody(t *testing.T, name, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestHealthHandler(t *testing.T) {
	s := newTestServer(t)

	req, _ := http.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode[models.HealthResponse](t, w).Status)
}

func TestListFiles_LoadsOnFirstUse(t *testing.T) {
	s := newTestServer(t)
	s.seed(t, models.CategoryImages, "cat.png", "image/png", []byte("png"))
	s.seed(t, models.CategoryDocuments, "notes.txt", "text/plain", []byte("hello"))

	w := s.do(t, "GET", "/api/v1/files", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[models.FilesResponse](t, w)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, 1, resp.Counts[models.CategoryImages])
	assert.Equal(t, 0, resp.Counts[models.CategoryArchived])
	assert.Empty(t, resp.Warnings)

	require.Len(t, resp.Categories[models.CategoryImages], 1)
	img := resp.Categories[models.CategoryImages][0]
	assert.Equal(t, "cat.png", img.Name)
	assert.Equal(t, models.FileTypeImage, img.Type)
	assert.Equal(t, filemanager.FormatSize(3), img.SizeLabel)
	assert.Equal(t,
		"https://proj.supabase.co/storage/v1/object/public/images/"+testUserID+"/cat.png", img.URL)
}

func TestListFiles_RefreshParam(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, "GET", "/api/v1/files", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, decode[models.FilesResponse](t, w).Total)

	s.seed(t, models.CategoryAudios, "song.mp3", "audio/mpeg", []byte("id3"))

	w = s.do(t, "GET", "/api/v1/files", nil, "")
	assert.Equal(t, 0, decode[models.FilesResponse](t, w).Total, "cached listing until refresh")

	w = s.do(t, "GET", "/api/v1/files?refresh=true", nil, "")
	assert.Equal(t, 1, decode[models.FilesResponse](t, w).Total)

	w = s.do(t, "GET", "/api/v1/files/counts", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	counts := decode[models.CountsResponse](t, w)
	assert.Equal(t, 1, counts.Total)
	assert.Equal(t, 1, counts.Counts[models.CategoryAudios])
}

func TestListFiles_Unauthorized(t *testing.T) {
	s := newTestServer(t)

	req, _ := http.NewRequest("GET", "/api/v1/files", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetFile(t *testing.T) {
	s := newTestServer(t)
	s.seed(t, models.CategoryVideos, "clip.mp4", "video/mp4", []byte("mp4"))

	w := s.do(t, "GET", "/api/v1/files/videos/clip.mp4", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.FileTypeVideo, decode[models.FileResponse](t, w).Type)

	w = s.do(t, "GET", "/api/v1/files/videos/missing.mp4", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, "GET", "/api/v1/files/pictures/clip.mp4", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpload_ByDeclaredType(t *testing.T) {
	s := newTestServer(t)

	body, ct := multipartBody(t, "report.pdf", "application/pdf", []byte("%PDF-1.4"))
	w := s.do(t, "POST", "/api/v1/files", body, ct)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := decode[models.UploadResponse](t, w)
	assert.Equal(t, models.CategoryDocuments, resp.Category)
	assert.Equal(t, testUserID+"/report.pdf", resp.Path)
	assert.Equal(t, 1, resp.Total)
	assert.True(t, s.objects.Has(models.CategoryDocuments, testUserID+"/report.pdf"))

	w = s.do(t, "GET", "/api/v1/files/upload-status", nil, "")
	status := decode[models.UploadStatusResponse](t, w)
	assert.False(t, status.IsUploading)
	assert.Empty(t, status.Error)
}

func TestUpload_SniffsMissingType(t *testing.T) {
	s := newTestServer(t)

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
	body, ct := multipartBody(t, "pixel.png", "", png)
	w := s.do(t, "POST", "/api/v1/files", body, ct)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	assert.Equal(t, models.CategoryImages, decode[models.UploadResponse](t, w).Category)
}

func TestUpload_Conflict(t *testing.T) {
	s := newTestServer(t)
	s.seed(t, models.CategoryImages, "cat.png", "image/png", []byte("old"))

	body, ct := multipartBody(t, "cat.png", "image/png", []byte("new"))
	w := s.do(t, "POST", "/api/v1/files", body, ct)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, "GET", "/api/v1/files/upload-status", nil, "")
	assert.Contains(t, decode[models.UploadStatusResponse](t, w).Error, "failed to upload file")
}

func TestUpload_TooLarge(t *testing.T) {
	s := newTestServer(t)

	body, ct := multipartBody(t, "big.bin", "application/octet-stream", bytes.Repeat([]byte("x"), 2<<20))
	w := s.do(t, "POST", "/api/v1/files", body, ct)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "file too large", decode[models.ErrorResponse](t, w).Error)
	assert.False(t, s.objects.Has(models.CategoryDocuments, testUserID+"/big.bin"))
}

func TestUpload_NoFile(t *testing.T) {
	s := newTestServer(t)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("note", "nothing attached"))
	require.NoError(t, writer.Close())

	w := s.do(t, "POST", "/api/v1/files", body, writer.FormDataContentType())
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, filemanager.ErrNoFile.Error(), decode[models.ErrorResponse](t, w).Error)

	w = s.do(t, "GET", "/api/v1/files/upload-status", nil, "")
	assert.Equal(t, filemanager.ErrNoFile.Error(), decode[models.UploadStatusResponse](t, w).Error)
}

func TestArchiveFile(t *testing.T) {
	s := newTestServer(t)
	s.seed(t, models.CategoryImages, "cat.png", "image/png", []byte("png"))

	w := s.do(t, "POST", "/api/v1/files/images/cat.png/archive", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	archived := decode[models.ArchiveResponse](t, w).File
	assert.Equal(t, models.CategoryArchived, archived.Category)
	assert.Equal(t, models.FileTypeImage, archived.Type)
	assert.Equal(t,
		"https://proj.supabase.co/storage/v1/object/public/archived/"+testUserID+"/cat.png", archived.URL)

	assert.False(t, s.objects.Has(models.CategoryImages, testUserID+"/cat.png"))
	assert.True(t, s.objects.Has(models.CategoryArchived, testUserID+"/cat.png"))

	w = s.do(t, "GET", "/api/v1/files/counts", nil, "")
	counts := decode[models.CountsResponse](t, w)
	assert.Equal(t, 0, counts.Counts[models.CategoryImages])
	assert.Equal(t, 1, counts.Counts[models.CategoryArchived])

	w = s.do(t, "POST", "/api/v1/files/archived/cat.png/archive", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteFile(t *testing.T) {
	s := newTestServer(t)
	s.seed(t, models.CategoryDocuments, "notes.txt", "text/plain", []byte("hello"))

	w := s.do(t, "DELETE", "/api/v1/files/documents/notes.txt", nil, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.False(t, s.objects.Has(models.CategoryDocuments, testUserID+"/notes.txt"))

	w = s.do(t, "DELETE", "/api/v1/files/documents/notes.txt", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetProfile(t *testing.T) {
	s := newTestServer(t)

	// ProfileSync creates the row on the first authenticated request.
	w := s.do(t, "GET", "/api/v1/profile", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[models.ProfileResponse](t, w)
	assert.Equal(t, testUserID, resp.ID)
	assert.Equal(t, "Ana Ruiz", resp.Nombre)
	assert.Equal(t, "ana@example.com", resp.Email)
}

func TestGetProfile_FallsBackToCachedName(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, "GET", "/api/v1/profile", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	s.profiles.mu.Lock()
	s.profiles.getErr = errors.New("connection refused")
	s.profiles.mu.Unlock()

	w = s.do(t, "GET", "/api/v1/profile", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Ana Ruiz", decode[models.ProfileResponse](t, w).Nombre)
}

func TestLogout(t *testing.T) {
	s := newTestServer(t)
	s.seed(t, models.CategoryDocuments, "notes.txt", "text/plain", []byte("hello"))

	w := s.do(t, "GET", "/api/v1/files", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	before := s.sessions.Get(testUserID)

	w = s.do(t, "POST", "/api/v1/logout", nil, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{s.token}, s.profiles.signOuts)
	assert.NotSame(t, before, s.sessions.Get(testUserID))
}

func TestLogout_ProviderFailureKeepsSession(t *testing.T) {
	s := newTestServer(t)
	s.profiles.signOut = errors.New("gotrue unavailable")
	before := s.sessions.Get(testUserID)

	w := s.do(t, "POST", "/api/v1/logout", nil, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Same(t, before, s.sessions.Get(testUserID))
}
