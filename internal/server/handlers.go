package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/benjaminschreck/go-docsection/internal/storage"
	"github.com/benjaminschreck/go-docsection/pkg/section"
)

const (
	missingPayload = "Missing 'file_base64' or 'competences'"
	docxMediaType  = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	downloadPrefix = "/download/"
)

// requestError is a client error with a fixed status and message.
type requestError struct {
	status  int
	message string
}

func (e *requestError) Error() string {
	return e.message
}

func badRequest(message string) error {
	return errors.WithStack(&requestError{status: http.StatusBadRequest, message: message})
}

// generateRequest is the JSON body of the generate endpoints. The same
// fields minus file_base64 complete a chunked upload.
type generateRequest struct {
	FileBase64  string   `json:"file_base64"`
	Competences []string `json:"competences"`
	Preset      string   `json:"preset,omitempty"`
	StartMarker string   `json:"start_marker,omitempty"`
	EndMarker   string   `json:"end_marker,omitempty"`
}

func (g generateRequest) sectionRequest() section.Request {
	return section.Request{
		StartMarker: g.StartMarker,
		EndMarker:   g.EndMarker,
		Items:       g.Competences,
		Preset:      g.Preset,
	}
}

type downloadResponse struct {
	DownloadURL string `json:"download_url"`
}

type inlineResponse struct {
	FileBase64 string `json:"file_base64"`
	Preset     string `json:"preset"`
	Removed    int    `json:"removed"`
	Paragraphs int    `json:"paragraphs"`
}

type uploadResponse struct {
	UploadID string `json:"upload_id"`
}

type chunkResponse struct {
	UploadID string `json:"upload_id"`
	Received int64  `json:"received"`
}

type presetsResponse struct {
	Default string           `json:"default"`
	Presets []section.Preset `json:"presets"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
	Presets int    `json:"presets"`
	Uploads int    `json:"uploads"`
}

// maxBodyBytes allows for base64 expansion of a maximal document plus the
// rest of the JSON body.
func (s *Server) maxBodyBytes() int64 {
	return s.config.MaxUploadBytes/3*4 + 64<<10
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes())
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return errors.WithStack(ErrUploadTooLarge)
		}
		if errors.Is(err, io.EOF) {
			return badRequest("Missing JSON request")
		}
		return badRequest("invalid JSON: " + err.Error())
	}
	return nil
}

// decodeDocument decodes the base64 document of a generate request.
func (s *Server) decodeDocument(encoded string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, badRequest("invalid base64 in 'file_base64'")
	}
	if int64(len(data)) > s.config.MaxUploadBytes {
		return nil, errors.WithStack(ErrUploadTooLarge)
	}
	return data, nil
}

func (s *Server) readGenerate(w http.ResponseWriter, r *http.Request) ([]byte, generateRequest, error) {
	var req generateRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		return nil, req, err
	}
	if req.FileBase64 == "" || len(req.Competences) == 0 {
		return nil, req, badRequest(missingPayload)
	}
	data, err := s.decodeDocument(req.FileBase64)
	return data, req, err
}

// rewrite runs the section rewrite and logs its outcome on the request
// logger.
func (s *Server) rewrite(r *http.Request, data []byte, req generateRequest) ([]byte, *section.Result, error) {
	out, res, err := s.rewriter.RewriteBytes(data, req.sectionRequest())
	if err != nil {
		return nil, res, err
	}
	zerolog.Ctx(r.Context()).Info().
		Str("preset", res.Preset).
		Int("removed", res.Removed).
		Int("inserted", len(res.Bullets)).
		Msg("Document generated")
	return out, res, nil
}

// saveGenerated stores a generated document and returns its download URL.
func (s *Server) saveGenerated(out []byte) (string, error) {
	name, err := s.store.Save(out)
	if err != nil {
		return "", err
	}
	return downloadPrefix + name, nil
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	data, req, err := s.readGenerate(w, r)
	if err != nil {
		fail(w, r, err)
		return
	}
	out, _, err := s.rewrite(r, data, req)
	if err != nil {
		fail(w, r, err)
		return
	}
	url, err := s.saveGenerated(out)
	if err != nil {
		fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, downloadResponse{DownloadURL: url})
}

func (s *Server) handleGenerateInline(w http.ResponseWriter, r *http.Request) {
	data, req, err := s.readGenerate(w, r)
	if err != nil {
		fail(w, r, err)
		return
	}
	out, res, err := s.rewrite(r, data, req)
	if err != nil {
		fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, inlineResponse{
		FileBase64: base64.StdEncoding.EncodeToString(out),
		Preset:     res.Preset,
		Removed:    res.Removed,
		Paragraphs: len(res.Bullets) + 1,
	})
}

// formItems reads competences from a multipart form: either one JSON array
// or one value per field.
func formItems(form *multipart.Form) ([]string, error) {
	values := form.Value["competences"]
	if len(values) == 1 && strings.HasPrefix(strings.TrimSpace(values[0]), "[") {
		var items []string
		if err := json.Unmarshal([]byte(values[0]), &items); err != nil {
			return nil, badRequest("invalid 'competences' array")
		}
		return items, nil
	}
	return values, nil
}

func formValue(form *multipart.Form, key string) string {
	if values := form.Value[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}

func (s *Server) handleGenerateUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes+64<<10)
	if err := r.ParseMultipartForm(s.config.MaxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			fail(w, r, errors.WithStack(ErrUploadTooLarge))
			return
		}
		fail(w, r, badRequest("invalid multipart form"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("file")
	if err != nil {
		fail(w, r, badRequest(missingPayload))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		fail(w, r, errors.Errorf("reading upload: %w", err))
		return
	}

	items, err := formItems(r.MultipartForm)
	if err != nil {
		fail(w, r, err)
		return
	}
	if len(data) == 0 || len(items) == 0 {
		fail(w, r, badRequest(missingPayload))
		return
	}

	req := generateRequest{
		Competences: items,
		Preset:      formValue(r.MultipartForm, "preset"),
		StartMarker: formValue(r.MultipartForm, "start_marker"),
		EndMarker:   formValue(r.MultipartForm, "end_marker"),
	}
	out, _, err := s.rewrite(r, data, req)
	if err != nil {
		fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", docxMediaType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+storage.NewName()+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(out)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

func (s *Server) handleCreateUpload(w http.ResponseWriter, r *http.Request) {
	id := s.uploads.Create()
	zerolog.Ctx(r.Context()).Debug().Str("upload_id", id).Msg("Upload opened")
	respond(w, http.StatusCreated, uploadResponse{UploadID: id})
}

func (s *Server) handleUploadChunk(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil || index < 0 {
		fail(w, r, badRequest("invalid chunk index"))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes()))
	if err != nil {
		fail(w, r, errors.WithStack(ErrUploadTooLarge))
		return
	}
	chunk, err := base64.StdEncoding.DecodeString(string(bytes.TrimSpace(body)))
	if err != nil {
		fail(w, r, badRequest("invalid base64 chunk"))
		return
	}

	received, err := s.uploads.Append(id, index, chunk)
	if err != nil {
		fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, chunkResponse{UploadID: id, Received: received})
}

func (s *Server) handleCompleteUpload(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	if len(req.Competences) == 0 {
		fail(w, r, badRequest(missingPayload))
		return
	}

	data, err := s.uploads.Take(r.PathValue("id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	if len(data) == 0 {
		fail(w, r, badRequest(missingPayload))
		return
	}

	out, _, err := s.rewrite(r, data, req)
	if err != nil {
		fail(w, r, err)
		return
	}
	url, err := s.saveGenerated(out)
	if err != nil {
		fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, downloadResponse{DownloadURL: url})
}

func (s *Server) handleDeleteUpload(w http.ResponseWriter, r *http.Request) {
	s.uploads.Remove(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	f, err := s.store.Open(name)
	if err != nil {
		fail(w, r, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		fail(w, r, errors.Errorf("stat %s: %w", name, err))
		return
	}

	w.Header().Set("Content-Type", docxMediaType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	http.ServeContent(w, r, name, info.ModTime(), f)
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, presetsResponse{
		Default: s.config.Preset,
		Presets: s.registry.List(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, healthResponse{
		Status:  "healthy",
		Version: s.version,
		Uptime:  time.Since(s.started).Round(time.Second).String(),
		Presets: s.registry.Count(),
		Uploads: s.uploads.Len(),
	})
}
