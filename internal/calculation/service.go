package calculation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"steelprice/server/config"
	"steelprice/server/internal/metrics"
	"steelprice/server/internal/models"
	"steelprice/server/internal/pricing"
	"steelprice/server/internal/sizeclass"
)

const dateLayout = "2006-01-02"

var (
	ErrInvalidDate  = errors.New("invalid date")
	ErrInvalidRange = errors.New("start date is after end date")
)

// User facing texts
const (
	InvalidDateMessage  = "Please enter a valid date in the format YYYY-MM-DD."
	InvalidRangeMessage = "The start date must not be after the end date."
	NoDataMessage       = "No data found or the calculation failed."
	NoDimensionsMessage = "No dimensions given for the piece price."
)

// PriceSource provides the purchase history matching a query.
type PriceSource interface {
	FetchPriceRecords(ctx context.Context, q models.PriceQuery) ([]models.PriceRecord, error)
}

// Input is the raw form data of one calculation request.
type Input struct {
	Material  string `form:"material" json:"material"`
	StartDate string `form:"startDate" json:"start_date"`
	EndDate   string `form:"endDate" json:"end_date"`
	Diameter  string `form:"diameter" json:"diameter"`
	Supplier  string `form:"supplier" json:"supplier"`
	Length    string `form:"length" json:"length"`
}

// Outcome is everything the interface shows after a calculation.
type Outcome struct {
	Material       string                   `json:"material"`
	StartDate      string                   `json:"start_date"`
	EndDate        string                   `json:"end_date"`
	Diameter       int                      `json:"diameter"`
	Length         int                      `json:"length"`
	Found          bool                     `json:"found"`
	Message        string                   `json:"message,omitempty"`
	AverageSummary string                   `json:"average_summary,omitempty"`
	MatchCountText string                   `json:"match_count_text,omitempty"`
	PiecePrice     string                   `json:"piece_price,omitempty"`
	PiecePriceNote string                   `json:"piece_price_note,omitempty"`
	Result         models.AggregationResult `json:"result"`
	Selected       *models.Match            `json:"selected"`
}

type Service struct {
	source     PriceSource
	aggregator *pricing.Aggregator
	calculator *pricing.Calculator
	cfg        *config.Config
	logger     *logrus.Logger
	now        func() time.Time
}

func NewService(source PriceSource, cfg *config.Config, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	return &Service{
		source: source,
		aggregator: &pricing.Aggregator{
			Markers:           cfg.Query.ExclusionMarkers,
			DiameterThreshold: cfg.Query.DiameterThreshold,
			LengthThreshold:   cfg.Query.LengthThreshold,
			Logger:            logger,
		},
		calculator: &pricing.Calculator{
			Density:  cfg.Pricing.Density,
			Currency: cfg.Pricing.Currency,
		},
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Calculate validates in, queries the purchase history and derives the
// average kg-price and piece price. Only validation problems are returned
// as errors; a failing data source yields an outcome with Found false.
func (s *Service) Calculate(ctx context.Context, in Input) (*Outcome, error) {
	in = trimInput(in)

	start, end, err := s.dateRange(in.StartDate, in.EndDate)
	if err != nil {
		metrics.CalculationsTotal.WithLabelValues(metrics.OutcomeInvalid).Inc()
		return nil, err
	}

	out := &Outcome{
		Material:  in.Material,
		StartDate: start,
		EndDate:   end,
		Diameter:  sizeclass.ParseDimension(in.Diameter),
		Length:    sizeclass.ParseDimension(in.Length),
		Result:    models.AggregationResult{Matches: []models.Match{}},
	}

	records, err := s.fetch(ctx, models.PriceQuery{
		Material:         in.Material,
		Supplier:         in.Supplier,
		StartDate:        start,
		EndDate:          end,
		MaterialGroupMin: s.cfg.Query.MaterialGroupMin,
		MaterialGroupMax: s.cfg.Query.MaterialGroupMax,
	})
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"material":   in.Material,
			"start_date": start,
			"end_date":   end,
		}).Error("Failed to fetch price records")
		metrics.CalculationsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		out.Message = NoDataMessage
		return out, nil
	}

	result := s.aggregator.Aggregate(records, out.Diameter, out.Length)
	if result.AverageKgPrice == nil {
		metrics.CalculationsTotal.WithLabelValues(metrics.OutcomeNoData).Inc()
		out.Message = NoDataMessage
		return out, nil
	}

	avg := *result.AverageKgPrice
	out.Found = true
	out.Result = result
	out.AverageSummary = pricing.FormatAverage(avg, s.cfg.Pricing.Currency)
	out.MatchCountText = fmt.Sprintf("Number of records found: %d", result.Count)
	out.Selected = &result.Matches[0]

	if text, ok := s.calculator.PiecePrice(in.Material, avg, out.Diameter, out.Length); ok {
		out.PiecePrice = text
	} else {
		out.PiecePriceNote = NoDimensionsMessage
	}

	s.logger.WithFields(logrus.Fields{
		"material": in.Material,
		"count":    result.Count,
		"average":  avg,
	}).Info("Calculated average kg-price")
	metrics.CalculationsTotal.WithLabelValues(metrics.OutcomeFound).Inc()
	return out, nil
}

// PiecePrice derives the piece price for known geometry and average.
func (s *Service) PiecePrice(material string, avgKgPrice float64, diameter, length int) (string, bool) {
	return s.calculator.PiecePrice(material, avgKgPrice, diameter, length)
}

// fetch runs one query under the configured timeout. A panicking source is
// reported as an error like any other data-access failure.
func (s *Service) fetch(ctx context.Context, q models.PriceQuery) (records []models.PriceRecord, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Database.QueryTimeout)
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.QueryDuration.Observe(time.Since(start).Seconds())
		if r := recover(); r != nil {
			records, err = nil, fmt.Errorf("price source panicked: %v", r)
		}
	}()

	records, err = s.source.FetchPriceRecords(ctx, q)
	if err != nil {
		return nil, err
	}
	metrics.RecordsFetched.Add(float64(len(records)))
	return records, nil
}

// dateRange applies the default lookback window and validates both dates.
func (s *Service) dateRange(startDate, endDate string) (string, string, error) {
	today := s.now()
	if startDate == "" {
		startDate = today.AddDate(0, 0, -s.cfg.Query.LookbackDays).Format(dateLayout)
	}
	if endDate == "" {
		endDate = today.Format(dateLayout)
	}

	start, err := time.Parse(dateLayout, startDate)
	if err != nil {
		return "", "", fmt.Errorf("%w: start date %q", ErrInvalidDate, startDate)
	}
	end, err := time.Parse(dateLayout, endDate)
	if err != nil {
		return "", "", fmt.Errorf("%w: end date %q", ErrInvalidDate, endDate)
	}
	if start.After(end) {
		return "", "", fmt.Errorf("%w: %s > %s", ErrInvalidRange, startDate, endDate)
	}
	return startDate, endDate, nil
}

func trimInput(in Input) Input {
	return Input{
		Material:  strings.TrimSpace(in.Material),
		StartDate: strings.TrimSpace(in.StartDate),
		EndDate:   strings.TrimSpace(in.EndDate),
		Diameter:  strings.TrimSpace(in.Diameter),
		Supplier:  strings.TrimSpace(in.Supplier),
		Length:    strings.TrimSpace(in.Length),
	}
}

// UserMessage maps a Calculate error to the text shown to the user.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrInvalidDate):
		return InvalidDateMessage
	case errors.Is(err, ErrInvalidRange):
		return InvalidRangeMessage
	default:
		return NoDataMessage
	}
}
