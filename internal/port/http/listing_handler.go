package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/Abdurahmanit/GroupProject/rental-service/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/service"
	"github.com/go-chi/chi/v5"
)

const photoFormField = "photo"

type createListingRequest struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	ImageURIs   []string     `json:"image_uris"`
	Price       entity.Price `json:"price"`
}

func (h *Handler) ListListings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	input := service.ListListingsInput{OwnerUUID: q.Get("owner")}
	if v := q.Get("include_inactive"); v != "" {
		include, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, h.log, fmt.Errorf("%w: include_inactive must be a boolean", entity.ErrInvalidRequest))
			return
		}
		input.IncludeInactive = include
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			writeError(w, h.log, fmt.Errorf("%w: limit must be a non-negative integer", entity.ErrInvalidRequest))
			return
		}
		input.Limit = limit
	}

	listings, err := h.listings.ListListings(r.Context(), input)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, map[string]interface{}{"listings": listings})
}

func (h *Handler) CreateListing(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req createListingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}

	listing, err := h.listings.CreateListing(r.Context(), callerID, service.CreateListingInput{
		Title:       req.Title,
		Description: req.Description,
		ImageURIs:   req.ImageURIs,
		Price:       req.Price,
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusCreated, listing)
}

func (h *Handler) GetListing(w http.ResponseWriter, r *http.Request) {
	listing, err := h.listings.GetListing(r.Context(), chi.URLParam(r, "listingId"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, listing)
}

func (h *Handler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.caller(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.cfg.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, h.log, fmt.Errorf("%w: photo exceeds %d bytes", entity.ErrInvalidRequest, h.cfg.MaxUploadBytes))
			return
		}
		writeError(w, h.log, fmt.Errorf("%w: expected a multipart form with a %q file", entity.ErrInvalidRequest, photoFormField))
		return
	}
	file, header, err := r.FormFile(photoFormField)
	if err != nil {
		writeError(w, h.log, fmt.Errorf("%w: expected a multipart form with a %q file", entity.ErrInvalidRequest, photoFormField))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, h.log, fmt.Errorf("%w: cannot read photo: %v", entity.ErrInvalidRequest, err))
		return
	}

	photoURL, err := h.listings.UploadPhoto(r.Context(), chi.URLParam(r, "listingId"), callerID, service.PhotoUpload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusCreated, map[string]string{"url": photoURL})
}

func (h *Handler) ListApplications(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.caller(w, r)
	if !ok {
		return
	}
	apps, err := h.listings.ListApplications(r.Context(), chi.URLParam(r, "listingId"), callerID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, map[string]interface{}{"applications": apps})
}
