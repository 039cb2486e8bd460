package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/tournament-platform/services"
)

// multipart overhead allowed on top of the attachment limit
const uploadFormOverhead = 1 << 20

var errMissingFile = errors.New("multipart field \"file\" is required")

type UploadHandler struct {
	uploadService services.UploadService
}

func NewUploadHandler(uploadService services.UploadService) *UploadHandler {
	return &UploadHandler{uploadService: uploadService}
}

func (h *UploadHandler) UploadProof(w http.ResponseWriter, r *http.Request) {
	userID, _, err := currentUser(r)
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, services.MaxProofSize+uploadFormOverhead)
	if err := r.ParseMultipartForm(services.MaxProofSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			mapServiceErrorToHTTP(w, r, &services.AttachmentError{Reason: "file exceeds 5 MB"})
			return
		}
		badRequestResponse(w, r, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		badRequestResponse(w, r, errMissingFile)
		return
	}
	defer file.Close()

	url, err := h.uploadService.UploadProof(r.Context(), userID, header.Filename, header.Size, file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"url": url}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
