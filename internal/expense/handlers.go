package expense

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/zombor/invoice-scanner/internal/scanning"
)

// multipart overhead allowed on top of the image itself
const formOverhead = 1 << 20

// file parts above this size are spooled to temp files while parsing
const formMemory = 1 << 20

// scanResponse is the body of POST /api/scanner
type scanResponse struct {
	Success bool            `json:"success"`
	Data    *scanning.Draft `json:"data,omitempty"`
	Reason  string          `json:"reason,omitempty"`
}

// corsError writes an error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleScan runs an uploaded image through the pipeline. Every handled
// outcome is a 200; only internal errors are a 500.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, scanning.MaxUploadSize+formOverhead)
	upload, err := readUpload(r)
	if err != nil {
		slog.Error("Error reading upload", "error", err)
		writeJSON(w, http.StatusInternalServerError, scanResponse{Reason: scanning.ReasonInternal})
		return
	}

	// a scan runs to completion even if the client goes away
	ctx := context.WithoutCancel(r.Context())
	outcome := s.service.Scan(ctx, upload)

	switch {
	case outcome.Success():
		writeJSON(w, http.StatusOK, scanResponse{Success: true, Data: outcome.Draft})
	case outcome.Kind == scanning.KindInternalError:
		writeJSON(w, http.StatusInternalServerError, scanResponse{Reason: outcome.Reason})
	default:
		writeJSON(w, http.StatusOK, scanResponse{Reason: outcome.Reason})
	}
}

// readUpload extracts the "file" field. A missing file or an oversized body is
// returned as an Upload the pipeline rejects, so every rejection has the same shape.
// Spooled form files are removed before it returns.
func readUpload(r *http.Request) (scanning.Upload, error) {
	err := r.ParseMultipartForm(formMemory)
	if r.MultipartForm != nil {
		defer func() {
			if err := r.MultipartForm.RemoveAll(); err != nil {
				slog.Warn("Error removing multipart temp files", "error", err)
			}
		}()
	}
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return scanning.Upload{Size: scanning.MaxUploadSize + 1}, nil
		}
		slog.Warn("Error parsing multipart form", "error", err)
		return scanning.Upload{}, nil
	}

	f, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return scanning.Upload{}, nil
	}
	if err != nil {
		return scanning.Upload{}, err
	}
	defer f.Close()

	upload := scanning.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	}
	if header.Size > scanning.MaxUploadSize {
		return upload, nil
	}

	data, err := io.ReadAll(io.LimitReader(f, scanning.MaxUploadSize+1))
	if err != nil {
		return scanning.Upload{}, err
	}
	upload.Data = data
	return upload, nil
}

// handleCategorize classifies a purchase as needs, wants or savings
func (s *Server) handleCategorize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Description string   `json:"description"`
		Price       *float64 `json:"price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}
	if strings.TrimSpace(req.Description) == "" || req.Price == nil || *req.Price == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Both 'description' and 'price' are required"})
		return
	}

	category, err := s.service.Classify(r.Context(), req.Description, *req.Price)
	if err != nil {
		slog.Error("Error categorizing expense", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to categorize expense"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"category": category})
}

// handleListExpenses returns all expenses, newest first
func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.service.ListExpenses()
	if err != nil {
		slog.Error("Error listing expenses", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, expenses)
}

// handleCreateExpense saves a reviewed draft
func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	expense, err := s.service.CreateExpense(in)
	if err != nil {
		s.writeServiceError(w, "creating", err)
		return
	}

	writeJSON(w, http.StatusCreated, expense)
}

// handleGetExpense returns a single expense
func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	expense, err := s.service.GetExpense(r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, "getting", err)
		return
	}

	writeJSON(w, http.StatusOK, expense)
}

// handleUpdateExpense replaces an expense's editable fields
func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	expense, err := s.service.UpdateExpense(r.PathValue("id"), in)
	if err != nil {
		s.writeServiceError(w, "updating", err)
		return
	}

	writeJSON(w, http.StatusOK, expense)
}

// handleDeleteExpense deletes an expense
func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteExpense(r.PathValue("id")); err != nil {
		s.writeServiceError(w, "deleting", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeServiceError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		corsError(w, "Expense not found", http.StatusNotFound)
	case errors.Is(err, ErrInvalidInput):
		corsError(w, err.Error(), http.StatusBadRequest)
	default:
		slog.Error("Error "+action+" expense", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
	}
}
