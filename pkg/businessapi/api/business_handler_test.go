package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/discover-business/business-api/pkg/businessapi"
	"github.com/discover-business/business-api/pkg/businessapi/repo/memory"
	memorystorage "github.com/discover-business/business-api/pkg/businessapi/storage/memory"
)

func setupRouter(t *testing.T, store businessapi.BlobStore) (chi.Router, *memory.Repository) {
	repo := memory.New()

	svc, err := businessapi.New(
		businessapi.WithRepository(repo),
		businessapi.WithBlobStore(store),
	)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Mount("/api/businesses", NewBusinessHandler(svc).Routes())
	r.Mount("/api/events", NewEventsHandler(svc).Routes())
	return r, repo
}

func doJSON(t *testing.T, router chi.Router, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	return decoded
}

func TestCreateBusiness_JSONDefaults(t *testing.T) {
	router, _ := setupRouter(t, memorystorage.New())

	w := doJSON(t, router, http.MethodPost, "/api/businesses",
		map[string]string{"name": "Acme", "industry": "Retail"})

	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "Business created successfully", body["message"])
	assert.NotEmpty(t, body["id"])
	assert.Equal(t, "Acme", body["name"])
	assert.Equal(t, businessapi.DefaultPlaceholderImageURL, body["imageUrl"])
	assert.Equal(t, []interface{}{}, body["productImages"])
}

func TestCreateBusiness_ProductImagesArray(t *testing.T) {
	router, _ := setupRouter(t, memorystorage.New())

	w := doJSON(t, router, http.MethodPost, "/api/businesses", map[string]interface{}{
		"name":          "Acme",
		"productImages": []string{"u1", "u2", "u3"},
	})

	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, []interface{}{"u1", "u2", "u3"}, body["productImages"])
}

func TestCreateBusiness_MalformedProductImagesDecays(t *testing.T) {
	router, _ := setupRouter(t, memorystorage.New())

	w := doJSON(t, router, http.MethodPost, "/api/businesses", map[string]interface{}{
		"name":          "Acme",
		"productImages": "{not json",
	})

	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, []interface{}{}, body["productImages"])
}

func TestCreateBusiness_InvalidJSON(t *testing.T) {
	router, _ := setupRouter(t, memorystorage.New())

	req := httptest.NewRequest(http.MethodPost, "/api/businesses", bytes.NewReader([]byte("{broken")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "error")
}

func multipartBody(t *testing.T, fields map[string]string, files map[string][]string) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for field, names := range files {
		for _, name := range names {
			part, err := mw.CreateFormFile(field, name)
			require.NoError(t, err)
			_, err = part.Write([]byte("bytes-of-" + name))
			require.NoError(t, err)
		}
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestCreateBusiness_MultipartTextFields(t *testing.T) {
	router, _ := setupRouter(t, memorystorage.New())

	body, contentType := multipartBody(t,
		map[string]string{
			"name":          "Acme",
			"productImages": `["https://a/1.png","https://a/2.png"]`,
		}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/businesses", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	resp := decodeBody(t, w)
	assert.Equal(t, []interface{}{"https://a/1.png", "https://a/2.png"}, resp["productImages"])
}

func TestCreateBusiness_URLEncodedForm(t *testing.T) {
	router, _ := setupRouter(t, memorystorage.New())

	form := url.Values{
		"name":          {"Acme"},
		"location":      {"Durban"},
		"productImages": {`["p1","p2"]`},
	}
	req := httptest.NewRequest(http.MethodPost, "/api/businesses", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "Acme", body["name"])
	assert.Equal(t, "Durban", body["location"])
	assert.Equal(t, []interface{}{"p1", "p2"}, body["productImages"])
	assert.Equal(t, businessapi.DefaultPlaceholderImageURL, body["imageUrl"])
}

func TestCreateBusiness_FileUploadsPreserveOrder(t *testing.T) {
	store := memorystorage.New()
	router, _ := setupRouter(t, store)

	names := []string{"first.png", "second.png", "third.png"}
	body, contentType := multipartBody(t,
		map[string]string{"name": "Acme"},
		map[string][]string{"image": {"logo.png"}, "productImages": names})

	req := httptest.NewRequest(http.MethodPost, "/api/businesses", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	resp := decodeBody(t, w)

	// The resolved upload replaces any textual value.
	imageURL, _ := resp["imageUrl"].(string)
	blob, ok := store.Blob(imageURL)
	require.True(t, ok)
	assert.Equal(t, "logo.png", blob.Filename)

	urls, ok := resp["productImages"].([]interface{})
	require.True(t, ok)
	require.Len(t, urls, len(names))
	for i, u := range urls {
		blob, ok := store.Blob(u.(string))
		require.True(t, ok, "url %v not stored", u)
		assert.Equal(t, names[i], blob.Filename, "order mismatch at index %d", i)
	}
}

// failingBlobStore rejects a specific filename.
type failingBlobStore struct {
	inner    *memorystorage.Backend
	failName string
}

func (f *failingBlobStore) Upload(ctx context.Context, att businessapi.Attachment) (string, error) {
	if att.Filename == f.failName {
		return "", errors.New("backend rejected blob")
	}
	return f.inner.Upload(ctx, att)
}

func TestCreateBusiness_UploadFailureAborts(t *testing.T) {
	store := &failingBlobStore{inner: memorystorage.New(), failName: "second.png"}
	router, repo := setupRouter(t, store)

	body, contentType := multipartBody(t,
		map[string]string{"name": "Acme"},
		map[string][]string{"productImages": {"first.png", "second.png", "third.png"}})

	req := httptest.NewRequest(http.MethodPost, "/api/businesses", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeBody(t, w)
	assert.Equal(t, "Failed to create business", resp["error"])
	assert.Contains(t, resp["details"], "backend rejected blob")

	// No partial record in the store.
	all, err := repo.ListBusinesses(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestGetBusiness_RoundTrip(t *testing.T) {
	router, _ := setupRouter(t, memorystorage.New())

	created := decodeBody(t, doJSON(t, router, http.MethodPost, "/api/businesses",
		map[string]string{"name": "Acme", "location": "Durban", "email": "hi@acme.test"}))
	id := created["id"].(string)

	w := doJSON(t, router, http.MethodGet, "/api/businesses/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, id, body["id"])
	assert.Equal(t, "Acme", body["name"])
	assert.Equal(t, "Durban", body["location"])
	assert.Equal(t, "hi@acme.test", body["email"])
}

func TestGetBusiness_NotFound(t *testing.T) {
	router, _ := setupRouter(t, memorystorage.New())

	w := doJSON(t, router, http.MethodGet, "/api/businesses/does-not-exist", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "Business not found", body["error"])
}

func TestListBusinesses(t *testing.T) {
	router, _ := setupRouter(t, memorystorage.New())

	for i := 0; i < 3; i++ {
		w := doJSON(t, router, http.MethodPost, "/api/businesses",
			map[string]string{"name": fmt.Sprintf("Biz %d", i)})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doJSON(t, router, http.MethodGet, "/api/businesses", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 3)
}

func TestUpdateBusiness(t *testing.T) {
	router, _ := setupRouter(t, memorystorage.New())

	created := decodeBody(t, doJSON(t, router, http.MethodPost, "/api/businesses",
		map[string]string{"name": "Acme", "industry": "Retail"}))
	id := created["id"].(string)

	w := doJSON(t, router, http.MethodPut, "/api/businesses/"+id,
		map[string]string{"industry": "Hospitality"})
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, "Business updated successfully", body["message"])
	assert.Equal(t, "Acme", body["name"])
	assert.Equal(t, "Hospitality", body["industry"])
	// Untouched attachments survive the update.
	assert.Equal(t, created["imageUrl"], body["imageUrl"])
}

func TestUpdateBusiness_NonStringImageURLKeepsStored(t *testing.T) {
	router, _ := setupRouter(t, memorystorage.New())

	created := decodeBody(t, doJSON(t, router, http.MethodPost, "/api/businesses",
		map[string]string{"name": "Acme", "imageUrl": "https://a/logo.png"}))
	id := created["id"].(string)

	w := doJSON(t, router, http.MethodPut, "/api/businesses/"+id,
		map[string]interface{}{"name": "Acme Ltd", "imageUrl": 13})
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, "Acme Ltd", body["name"])
	// The unusable imageUrl is dropped, not stored as "".
	assert.Equal(t, "https://a/logo.png", body["imageUrl"])
}

func TestUpdateBusiness_NotFound(t *testing.T) {
	router, repo := setupRouter(t, memorystorage.New())

	w := doJSON(t, router, http.MethodPut, "/api/businesses/ghost",
		map[string]string{"name": "New"})
	require.Equal(t, http.StatusNotFound, w.Code)

	// PUT on a nonexistent id must not create a document.
	all, err := repo.ListBusinesses(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestDeleteBusiness_TwiceThenGone(t *testing.T) {
	router, _ := setupRouter(t, memorystorage.New())

	created := decodeBody(t, doJSON(t, router, http.MethodPost, "/api/businesses",
		map[string]string{"name": "Acme"}))
	id := created["id"].(string)

	w := doJSON(t, router, http.MethodDelete, "/api/businesses/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Business deleted successfully", decodeBody(t, w)["message"])

	w = doJSON(t, router, http.MethodGet, "/api/businesses/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/api/businesses/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// brokenRepository fails every operation with a wrapped store error.
type brokenRepository struct{}

func (brokenRepository) CreateBusiness(ctx context.Context, fields businessapi.Fields) (*businessapi.Business, error) {
	return nil, &businessapi.RepositoryError{Op: "create", Err: errors.New("connection reset")}
}

func (brokenRepository) ListBusinesses(ctx context.Context) ([]*businessapi.Business, error) {
	return nil, &businessapi.RepositoryError{Op: "list", Err: errors.New("connection reset")}
}

func (brokenRepository) GetBusiness(ctx context.Context, id string) (*businessapi.Business, error) {
	return nil, &businessapi.RepositoryError{Op: "get", ID: id, Err: errors.New("connection reset")}
}

func (brokenRepository) UpdateBusiness(ctx context.Context, id string, fields businessapi.Fields) (*businessapi.Business, error) {
	return nil, &businessapi.RepositoryError{Op: "update", ID: id, Err: errors.New("connection reset")}
}

func (brokenRepository) DeleteBusiness(ctx context.Context, id string) error {
	return &businessapi.RepositoryError{Op: "delete", ID: id, Err: errors.New("connection reset")}
}

func (brokenRepository) ListEvents(ctx context.Context) ([]*businessapi.Event, error) {
	return nil, &businessapi.RepositoryError{Op: "list events", Err: errors.New("connection reset")}
}

func TestStoreFailuresMapTo500(t *testing.T) {
	svc, err := businessapi.New(
		businessapi.WithRepository(brokenRepository{}),
		businessapi.WithBlobStore(memorystorage.New()),
	)
	require.NoError(t, err)

	router := chi.NewRouter()
	router.Mount("/api/businesses", NewBusinessHandler(svc).Routes())
	router.Mount("/api/events", NewEventsHandler(svc).Routes())

	tests := []struct {
		name     string
		method   string
		path     string
		body     interface{}
		expected string
	}{
		{"create", http.MethodPost, "/api/businesses", map[string]string{"name": "Acme"}, "Failed to create business"},
		{"list", http.MethodGet, "/api/businesses", nil, "Failed to fetch businesses"},
		{"get", http.MethodGet, "/api/businesses/abc", nil, "Failed to fetch business"},
		{"update", http.MethodPut, "/api/businesses/abc", map[string]string{"name": "New"}, "Failed to update business"},
		{"delete", http.MethodDelete, "/api/businesses/abc", nil, "Failed to delete business"},
		{"list events", http.MethodGet, "/api/events", nil, "Failed to fetch events"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, tt.method, tt.path, tt.body)
			require.Equal(t, http.StatusInternalServerError, w.Code)

			body := decodeBody(t, w)
			assert.Equal(t, tt.expected, body["error"])
			assert.Contains(t, body["details"], "connection reset")
		})
	}
}

func TestListEvents(t *testing.T) {
	router, repo := setupRouter(t, memorystorage.New())

	repo.SeedEvent("ev1", businessapi.Fields{"title": "Market day"})

	w := doJSON(t, router, http.MethodGet, "/api/events", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "ev1", list[0]["id"])
	assert.Equal(t, "Market day", list[0]["title"])
}

func TestListEvents_Empty(t *testing.T) {
	router, _ := setupRouter(t, memorystorage.New())

	w := doJSON(t, router, http.MethodGet, "/api/events", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}
