package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/discover-business/business-api/pkg/businessapi"
)

// maxMultipartMemory caps the in-memory portion of multipart form parsing.
const maxMultipartMemory = 32 << 20

// BusinessHandler handles HTTP requests for the business resource
type BusinessHandler struct {
	service businessapi.Service
}

// NewBusinessHandler creates a new business handler
func NewBusinessHandler(service businessapi.Service) *BusinessHandler {
	return &BusinessHandler{service: service}
}

// Routes returns the router for business endpoints
func (h *BusinessHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.CreateBusiness)
	r.Get("/", h.ListBusinesses)
	r.Get("/{id}", h.GetBusiness)
	r.Put("/{id}", h.UpdateBusiness)
	r.Delete("/{id}", h.DeleteBusiness)
	return r
}

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// saveResponse flattens into {message, id, ...fields}.
type saveResponse struct {
	Message  string
	Business *businessapi.Business
}

func (sr saveResponse) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(sr.Business.Fields)+2)
	for k, v := range sr.Business.Fields {
		out[k] = v
	}
	out["id"] = sr.Business.ID
	out["message"] = sr.Message
	return json.Marshal(out)
}

// CreateBusiness creates a new business record
func (h *BusinessHandler) CreateBusiness(w http.ResponseWriter, r *http.Request) {
	req, err := decodeSaveRequest(r)
	if err != nil {
		slog.Error("Failed to decode request", "error", err)
		renderError(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	business, err := h.service.CreateBusiness(r.Context(), req)
	if err != nil {
		slog.Error("Failed to create business", "error", err)
		renderError(w, r, http.StatusInternalServerError, "Failed to create business", err)
		return
	}

	slog.Info("Business created", "id", business.ID)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, saveResponse{Message: "Business created successfully", Business: business})
}

// ListBusinesses returns every business record
func (h *BusinessHandler) ListBusinesses(w http.ResponseWriter, r *http.Request) {
	businesses, err := h.service.ListBusinesses(r.Context())
	if err != nil {
		slog.Error("Failed to fetch businesses", "error", err)
		renderError(w, r, http.StatusInternalServerError, "Failed to fetch businesses", err)
		return
	}
	if businesses == nil {
		businesses = []*businessapi.Business{}
	}
	render.JSON(w, r, businesses)
}

// GetBusiness returns a single business record
func (h *BusinessHandler) GetBusiness(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	business, err := h.service.GetBusiness(r.Context(), id)
	if err != nil {
		h.renderServiceError(w, r, err, "Failed to fetch business")
		return
	}
	render.JSON(w, r, business)
}

// UpdateBusiness merges the supplied fields into an existing record
func (h *BusinessHandler) UpdateBusiness(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	req, err := decodeSaveRequest(r)
	if err != nil {
		slog.Error("Failed to decode request", "id", id, "error", err)
		renderError(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	business, err := h.service.UpdateBusiness(r.Context(), id, req)
	if err != nil {
		h.renderServiceError(w, r, err, "Failed to update business")
		return
	}

	slog.Info("Business updated", "id", id)
	render.JSON(w, r, saveResponse{Message: "Business updated successfully", Business: business})
}

// DeleteBusiness removes a business record
func (h *BusinessHandler) DeleteBusiness(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteBusiness(r.Context(), id); err != nil {
		h.renderServiceError(w, r, err, "Failed to delete business")
		return
	}

	slog.Info("Business deleted", "id", id)
	render.JSON(w, r, map[string]string{"message": "Business deleted successfully"})
}

func (h *BusinessHandler) renderServiceError(w http.ResponseWriter, r *http.Request, err error, summary string) {
	if errors.Is(err, businessapi.ErrBusinessNotFound) {
		renderError(w, r, http.StatusNotFound, "Business not found", nil)
		return
	}
	slog.Error(summary, "error", err)
	renderError(w, r, http.StatusInternalServerError, summary, err)
}

func renderError(w http.ResponseWriter, r *http.Request, status int, summary string, err error) {
	resp := ErrorResponse{Error: summary}
	if err != nil {
		resp.Details = err.Error()
	}
	render.Status(r, status)
	render.JSON(w, r, resp)
}

// decodeSaveRequest normalizes the inbound body. JSON bodies pass scalar
// fields through; multipart bodies carry text fields plus the optional
// "image" and "productImages" file parts.
func decodeSaveRequest(r *http.Request) (businessapi.SaveBusinessRequest, error) {
	var req businessapi.SaveBusinessRequest

	mediaType := r.Header.Get("Content-Type")
	if parsed, _, err := mime.ParseMediaType(mediaType); err == nil {
		mediaType = parsed
	}

	switch {
	case strings.HasPrefix(mediaType, "multipart/"):
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			return req, err
		}
		req.Fields = businessapi.NormalizeForm(url.Values(r.MultipartForm.Value))

		image, err := singleFileAttachment(r.MultipartForm, "image")
		if err != nil {
			return req, err
		}
		req.Image = image

		gallery, err := fileAttachments(r.MultipartForm, businessapi.FieldProductImages)
		if err != nil {
			return req, err
		}
		req.Gallery = gallery

	case mediaType == "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return req, err
		}
		req.Fields = businessapi.NormalizeForm(r.PostForm)

	default:
		var raw map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			return req, err
		}
		req.Fields = businessapi.NormalizeFields(raw)
	}

	return req, nil
}

func singleFileAttachment(form *multipart.Form, field string) (*businessapi.Attachment, error) {
	headers := form.File[field]
	if len(headers) == 0 {
		return nil, nil
	}
	att, err := readAttachment(headers[0])
	if err != nil {
		return nil, err
	}
	return &att, nil
}

func fileAttachments(form *multipart.Form, field string) ([]businessapi.Attachment, error) {
	headers := form.File[field]
	if len(headers) == 0 {
		return nil, nil
	}
	// Submission order of the file parts is preserved.
	atts := make([]businessapi.Attachment, 0, len(headers))
	for _, fh := range headers {
		att, err := readAttachment(fh)
		if err != nil {
			return nil, err
		}
		atts = append(atts, att)
	}
	return atts, nil
}

func readAttachment(fh *multipart.FileHeader) (businessapi.Attachment, error) {
	f, err := fh.Open()
	if err != nil {
		return businessapi.Attachment{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return businessapi.Attachment{}, err
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return businessapi.Attachment{
		Filename:    fh.Filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}
