package api

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"steelprice/server/internal/calculation"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Calculator is the part of calculation.Service the handlers need.
type Calculator interface {
	Calculate(ctx context.Context, in calculation.Input) (*calculation.Outcome, error)
	PiecePrice(material string, avgKgPrice float64, diameter, length int) (string, bool)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	calc      Calculator
	db        Pinger
	logger    *logrus.Logger
	validator *validator.Validate
}

// PiecePriceRequest asks for the piece price of a known average kg-price.
type PiecePriceRequest struct {
	Material       string  `json:"material" validate:"required,max=128"`
	AverageKgPrice float64 `json:"average_kg_price"`
	Diameter       int     `json:"diameter"`
	Length         int     `json:"length"`
}

func NewHandler(calc Calculator, db Pinger, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Handler{
		calc:      calc,
		db:        db,
		logger:    logger,
		validator: validator.New(),
	}
}

func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.logger.WithError(err).Warn("Database ping failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetKgPrice runs one calculation from the query string.
func (h *Handler) GetKgPrice(c *gin.Context) {
	outcome, ok := h.calculate(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, outcome)
}

// ExportKgPrice runs one calculation and returns the matches as workbook.
func (h *Handler) ExportKgPrice(c *gin.Context) {
	outcome, ok := h.calculate(c)
	if !ok {
		return
	}
	if !outcome.Found {
		c.JSON(http.StatusNotFound, gin.H{"error": outcome.Message})
		return
	}

	data, err := buildMatchWorkbook(outcome)
	if err != nil {
		h.logger.WithError(err).Error("Failed to build match workbook")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build export"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+exportFilename(outcome)+`"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}

// PostPiecePrice derives a piece price without querying the history.
func (h *Handler) PostPiecePrice(c *gin.Context) {
	var req PiecePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Error("Failed to parse piece price request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Material is required"})
		return
	}

	text, ok := h.calc.PiecePrice(req.Material, req.AverageKgPrice, req.Diameter, req.Length)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"available": false, "message": calculation.NoDimensionsMessage})
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": true, "piece_price": text})
}

// calculate writes the error response itself and reports whether the
// caller should continue.
func (h *Handler) calculate(c *gin.Context) (*calculation.Outcome, bool) {
	var in calculation.Input
	if err := c.ShouldBindQuery(&in); err != nil {
		h.logger.WithError(err).Error("Failed to parse calculation query")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request parameters"})
		return nil, false
	}

	outcome, err := h.calc.Calculate(c.Request.Context(), in)
	if err != nil {
		if !errors.Is(err, calculation.ErrInvalidDate) && !errors.Is(err, calculation.ErrInvalidRange) {
			h.logger.WithError(err).Error("Calculation failed")
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": calculation.UserMessage(err)})
		return nil, false
	}
	return outcome, true
}
