package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/aTrapDeer/portfolio-backend/internal/upload"
)

// multipartOverhead covers the form boundaries and headers around the file.
const multipartOverhead = 64 << 10

func (s *Server) uploadImage(w http.ResponseWriter, r *http.Request) error {
	if s.uploader == nil {
		return &Error{Status: http.StatusServiceUnavailable, Message: "Uploads are not configured"}
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.uploadMax+multipartOverhead)
	if err := r.ParseMultipartForm(s.uploadMax); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fileTooLarge(s.uploadMax)
		}
		return badRequest("Invalid multipart form")
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("image")
	if err != nil {
		return badRequest("No file uploaded")
	}
	defer file.Close()

	if header.Size > s.uploadMax {
		return fileTooLarge(s.uploadMax)
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return badRequest("Could not read uploaded file")
	}
	contentType, err := upload.DetectImage(head[:n])
	if err != nil {
		return badRequest("Only image files are allowed")
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return internal("Upload failed", err)
	}

	name := upload.ObjectName(contentType, s.now())
	url, err := s.uploader.Save(r.Context(), name, file, header.Size, contentType)
	if err != nil {
		return internal("Upload failed", err)
	}
	s.log.Info("image uploaded", "file", header.Filename, "url", url, "bytes", header.Size)
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
	return nil
}

func fileTooLarge(limit int64) *Error {
	return &Error{
		Status:  http.StatusRequestEntityTooLarge,
		Message: fmt.Sprintf("File too large, the limit is %d bytes", limit),
	}
}
