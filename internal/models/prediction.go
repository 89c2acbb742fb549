package models

import "time"

// Placeholders used before the first successful fetch and for incomplete citations.
const (
	LastUpdatePlaceholder = "--:--"
	DefaultSourceTitle    = "Industry data source"
	DefaultSourceURI      = "#"
)

// PricePoint is one day's observed or predicted price.
// Bounds are nil when upstream did not supply them.
type PricePoint struct {
	Date       string   `json:"date" yaml:"date"`
	Price      float64  `json:"price" yaml:"price"`
	UpperBound *float64 `json:"upperBound,omitempty" yaml:"upper_bound,omitempty"`
	LowerBound *float64 `json:"lowerBound,omitempty" yaml:"lower_bound,omitempty"`
}

// HasBounds reports whether both confidence bounds are present.
func (p PricePoint) HasBounds() bool {
	return p.UpperBound != nil && p.LowerBound != nil
}

// BoundsOrdered reports whether lowerBound <= price <= upperBound.
// Points without both bounds are considered ordered.
func (p PricePoint) BoundsOrdered() bool {
	if !p.HasBounds() {
		return true
	}
	return *p.LowerBound <= p.Price && p.Price <= *p.UpperBound
}

// Clone returns a copy that shares no bound storage with p.
func (p PricePoint) Clone() PricePoint {
	out := PricePoint{Date: p.Date, Price: p.Price}
	if p.UpperBound != nil {
		v := *p.UpperBound
		out.UpperBound = &v
	}
	if p.LowerBound != nil {
		v := *p.LowerBound
		out.LowerBound = &v
	}
	return out
}

// ClonePricePoints deep-copies a price sequence. A nil input yields an empty, non-nil slice.
func ClonePricePoints(points []PricePoint) []PricePoint {
	out := make([]PricePoint, len(points))
	for i, p := range points {
		out[i] = p.Clone()
	}
	return out
}

// Source is a grounding citation reported by the upstream model.
type Source struct {
	Title string `json:"title" yaml:"title"`
	URI   string `json:"uri" yaml:"uri"`
}

// CloneSources copies a citation list. A nil input yields an empty, non-nil slice.
func CloneSources(sources []Source) []Source {
	out := make([]Source, len(sources))
	copy(out, sources)
	return out
}

// PredictionData is the normalized body of an upstream response.
type PredictionData struct {
	MarketSummary  string       `json:"marketSummary" yaml:"market_summary"`
	SentimentScore int          `json:"sentimentScore" yaml:"sentiment_score" validate:"min=-100,max=100"`
	CurrentPrice   float64      `json:"currentPrice" yaml:"current_price" validate:"gt=0"`
	History        []PricePoint `json:"history" yaml:"history"`
	Prediction     []PricePoint `json:"prediction" yaml:"prediction"`
}

// Clone deep-copies the data.
func (d PredictionData) Clone() PredictionData {
	return PredictionData{
		MarketSummary:  d.MarketSummary,
		SentimentScore: d.SentimentScore,
		CurrentPrice:   d.CurrentPrice,
		History:        ClonePricePoints(d.History),
		Prediction:     ClonePricePoints(d.Prediction),
	}
}

// PredictionResult is what a fetch hands to callers: normalized data plus citations.
type PredictionResult struct {
	Data      PredictionData `json:"data" yaml:"data"`
	Sources   []Source       `json:"sources" yaml:"sources"`
	FetchedAt time.Time      `json:"fetchedAt" yaml:"fetched_at"`
}

// Clone deep-copies the result.
func (r *PredictionResult) Clone() *PredictionResult {
	if r == nil {
		return nil
	}
	return &PredictionResult{
		Data:      r.Data.Clone(),
		Sources:   CloneSources(r.Sources),
		FetchedAt: r.FetchedAt,
	}
}

// CacheEntry is the single cached fetch result. It is replaced wholesale, never mutated.
type CacheEntry struct {
	Result               PredictionResult
	FetchedAtEpochMillis int64
}

// FetchedAt returns the fetch timestamp as a time.Time.
func (e *CacheEntry) FetchedAt() time.Time {
	return time.UnixMilli(e.FetchedAtEpochMillis)
}

// PredictionState is the render model owned by the presentation layer.
type PredictionState struct {
	CurrentPrice   float64      `json:"currentPrice"`
	LastUpdate     string       `json:"lastUpdate"`
	History        []PricePoint `json:"history"`
	Prediction     []PricePoint `json:"prediction"`
	SentimentScore *int         `json:"sentimentScore,omitempty"`
	News           string       `json:"news"`
	Sources        []Source     `json:"sources"`
	IsUpdating     bool         `json:"isUpdating"`
}

// NewPredictionState returns the state shown before anything has loaded.
func NewPredictionState() PredictionState {
	return PredictionState{
		LastUpdate: LastUpdatePlaceholder,
		History:    []PricePoint{},
		Prediction: []PricePoint{},
		Sources:    []Source{},
	}
}

// Clone deep-copies the state.
func (s PredictionState) Clone() PredictionState {
	out := s
	out.History = ClonePricePoints(s.History)
	out.Prediction = ClonePricePoints(s.Prediction)
	out.Sources = CloneSources(s.Sources)
	if s.SentimentScore != nil {
		v := *s.SentimentScore
		out.SentimentScore = &v
	}
	return out
}
