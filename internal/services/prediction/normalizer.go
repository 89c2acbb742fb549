package prediction

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/moutai/internal/models"
)

// DefaultMinHistory is the shortest history accepted by Normalize.
const DefaultMinHistory = 5

var validate = validator.New()

// NormalizeOptions tunes the sufficiency gate. Logger may be nil.
type NormalizeOptions struct {
	MinHistory int
	Logger     arbor.ILogger
}

// Normalize turns untrusted model output into validated PredictionData.
// Empty text is treated as "{}". Fields of the wrong type fall back to their zero value,
// malformed array entries are dropped and order is kept as given.
func Normalize(rawText string, opts NormalizeOptions) (*models.PredictionData, error) {
	minHistory := opts.MinHistory
	if minHistory <= 0 {
		minHistory = DefaultMinHistory
	}

	text := strings.TrimSpace(rawText)
	if text == "" {
		text = "{}"
	}

	var parsed interface{}
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, &ParseError{Err: err}
	}
	obj, ok := parsed.(map[string]interface{})
	if !ok {
		return nil, &ParseError{Err: fmt.Errorf("top-level JSON value is %T, not an object", parsed)}
	}

	data := &models.PredictionData{
		MarketSummary:  stringField(obj, "market_summary"),
		SentimentScore: sentimentField(obj, "sentiment_score"),
		CurrentPrice:   numberField(obj, "current_price"),
		History:        pricePoints(obj["history"], false),
		Prediction:     pricePoints(obj["forecast"], true),
	}

	if err := checkSufficiency(data, minHistory); err != nil {
		return nil, err
	}

	if opts.Logger != nil {
		for _, p := range data.Prediction {
			if !p.BoundsOrdered() {
				opts.Logger.Warn().
					Str("date", p.Date).
					Str("price", formatFloat(p.Price)).
					Str("lower_bound", formatFloat(*p.LowerBound)).
					Str("upper_bound", formatFloat(*p.UpperBound)).
					Msg("Forecast bounds do not bracket the price")
			}
		}
	}

	return data, nil
}

func checkSufficiency(data *models.PredictionData, minHistory int) error {
	if err := validate.Struct(data); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			switch verrs[0].Field() {
			case "CurrentPrice":
				return &InsufficientDataError{Reason: "current_price must be positive"}
			case "SentimentScore":
				return &InsufficientDataError{Reason: "sentiment_score out of range"}
			}
		}
		return &InsufficientDataError{Reason: err.Error()}
	}

	if err := validate.Var(data.History, fmt.Sprintf("min=%d", minHistory)); err != nil {
		return &InsufficientDataError{
			Reason: fmt.Sprintf("history has %d entries, need at least %d", len(data.History), minHistory),
		}
	}

	return nil
}

func stringField(obj map[string]interface{}, key string) string {
	if s, ok := obj[key].(string); ok {
		return s
	}
	return ""
}

func numberField(obj map[string]interface{}, key string) float64 {
	if n, ok := obj[key].(float64); ok {
		return n
	}
	return 0
}

// sentimentField rounds to the nearest integer and clamps to [-100, 100].
func sentimentField(obj map[string]interface{}, key string) int {
	n, ok := obj[key].(float64)
	if !ok {
		return 0
	}
	return int(math.Max(-100, math.Min(100, math.Round(n))))
}

func pricePoints(value interface{}, withBounds bool) []models.PricePoint {
	items, ok := value.([]interface{})
	if !ok {
		return []models.PricePoint{}
	}

	points := make([]models.PricePoint, 0, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		date, ok := entry["date"].(string)
		if !ok || strings.TrimSpace(date) == "" {
			continue
		}
		price, ok := entry["price"].(float64)
		if !ok || price < 0 || math.IsInf(price, 0) || math.IsNaN(price) {
			continue
		}

		point := models.PricePoint{Date: date, Price: price}
		if withBounds {
			point.UpperBound = optionalNumber(entry["upper_bound"])
			point.LowerBound = optionalNumber(entry["lower_bound"])
		}
		points = append(points, point)
	}
	return points
}

func optionalNumber(value interface{}) *float64 {
	n, ok := value.(float64)
	if !ok {
		return nil
	}
	return &n
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
