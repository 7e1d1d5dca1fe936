package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/ndewijer/Wealth-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Wealth-Tracker-Backend/internal/model"
	"github.com/ndewijer/Wealth-Tracker-Backend/internal/parser"
	"github.com/ndewijer/Wealth-Tracker-Backend/internal/service"
	"github.com/ndewijer/Wealth-Tracker-Backend/internal/validation"
)

// PortfolioHandler handles portfolio-related HTTP requests
type PortfolioHandler struct {
	portfolioService *service.PortfolioService
}

// NewPortfolioHandler creates a new PortfolioHandler
func NewPortfolioHandler(portfolioService *service.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: portfolioService,
	}
}

// PositionsResponse represents the aggregated positions response
type PositionsResponse struct {
	Positions []model.Position `json:"positions"`
}

// PortfolioSummary values the uploaded broker exports.
//
// Endpoint: POST /api/portfolio/summary?currency=INR
// Request: multipart/form-data with one or more files in the kuvera, ibkr or crypto fields
// Response: 200 OK with {summary, byClass, positions, failures}
// Error: 400 Bad Request for missing files, unknown columns or an invalid currency
func (h *PortfolioHandler) PortfolioSummary(w http.ResponseWriter, r *http.Request) {
	currency, err := validation.NormalizeCurrency(r.URL.Query().Get("currency"))
	if err != nil {
		respondServiceError(w, "invalid currency", err)
		return
	}

	transactions, err := h.parseRequest(r)
	if err != nil {
		respondServiceError(w, "failed to parse uploads", err)
		return
	}

	report, err := h.portfolioService.Summarize(r.Context(), transactions, currency)
	if err != nil {
		respondServiceError(w, "failed to summarize portfolio", err)
		return
	}

	respondJSON(w, http.StatusOK, service.RoundReport(report))
}

// PortfolioPositions aggregates the uploaded broker exports without pricing them.
//
// Endpoint: POST /api/portfolio/positions
// Request: multipart/form-data with one or more files in the kuvera, ibkr or crypto fields
// Response: 200 OK with PositionsResponse
// Error: 400 Bad Request for missing files or unknown columns
func (h *PortfolioHandler) PortfolioPositions(w http.ResponseWriter, r *http.Request) {
	transactions, err := h.parseRequest(r)
	if err != nil {
		respondServiceError(w, "failed to parse uploads", err)
		return
	}

	positions := service.RoundPositions(h.portfolioService.Positions(transactions))
	if positions == nil {
		positions = []model.Position{}
	}
	respondJSON(w, http.StatusOK, PositionsResponse{Positions: positions})
}

// parseRequest reads every broker file from the multipart form and parses it.
func (h *PortfolioHandler) parseRequest(r *http.Request) ([]model.Transaction, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return nil, apperrors.ErrMissingFile
		}
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToParseUpload, err)
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck // temp file cleanup

	var (
		uploads []service.Upload
		files   []multipart.File
	)
	defer func() {
		for _, f := range files {
			f.Close()
		}
	}()

	for _, broker := range parser.Brokers() {
		for _, header := range r.MultipartForm.File[broker] {
			f, err := header.Open()
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %w", apperrors.ErrFailedToParseUpload, header.Filename, err)
			}
			files = append(files, f)
			uploads = append(uploads, service.Upload{Broker: broker, Filename: header.Filename, Body: f})
		}
	}

	return h.portfolioService.ParseUploads(uploads)
}
