package dashboard

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/ternarybob/moutai/internal/models"
)

const (
	pricePlaceholder = "---"
	currencySymbol   = "¥"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough, extension.Linkify))

// View is the render model for the dashboard page.
type View struct {
	CurrentPrice    string
	Change          string
	ChangePercent   string
	ChangeDirection string // "up", "down" or "flat"; empty without history
	LastUpdate      string
	SentimentScore  *int
	SentimentLabel  string
	SummaryHTML     template.HTML
	Sources         []models.Source
	Chart           []ChartRow
	History         []HistoryRow
	Editing         bool
	Error           string
	IsUpdating      bool
}

// ChartRow is one forecast point with display strings.
type ChartRow struct {
	Date        string // full date as given
	DisplayDate string // MM-DD
	Price       string
	UpperBound  string
	LowerBound  string
	Value       float64
}

// HistoryRow is one history entry; in an edit session it reflects the draft.
type HistoryRow struct {
	Index       int
	Date        string
	DisplayDate string
	Price       string
	Value       float64
}

// BuildView derives the render model from a snapshot.
func BuildView(snap Snapshot) (*View, error) {
	state := snap.State

	view := &View{
		CurrentPrice:   pricePlaceholder,
		LastUpdate:     state.LastUpdate,
		SentimentScore: state.SentimentScore,
		SentimentLabel: sentimentLabel(state.SentimentScore),
		Sources:        state.Sources,
		Editing:        snap.Editing,
		Error:          snap.Error,
		IsUpdating:     state.IsUpdating,
	}

	if state.CurrentPrice > 0 {
		view.CurrentPrice = FormatPrice(state.CurrentPrice)
	}

	if state.CurrentPrice > 0 && len(state.History) > 0 {
		current := decimal.NewFromFloat(state.CurrentPrice)
		previous := decimal.NewFromFloat(state.History[len(state.History)-1].Price)
		diff := current.Sub(previous)

		view.Change = signed(diff)
		view.ChangeDirection = direction(diff)
		if !previous.IsZero() {
			view.ChangePercent = signed(diff.Div(previous).Mul(decimal.NewFromInt(100))) + "%"
		}
	}

	summary, err := RenderMarkdown(state.News)
	if err != nil {
		return nil, err
	}
	view.SummaryHTML = summary

	for _, p := range state.Prediction {
		row := ChartRow{
			Date:        p.Date,
			DisplayDate: DisplayDate(p.Date),
			Price:       FormatPrice(p.Price),
			Value:       p.Price,
		}
		if p.UpperBound != nil {
			row.UpperBound = FormatPrice(*p.UpperBound)
		}
		if p.LowerBound != nil {
			row.LowerBound = FormatPrice(*p.LowerBound)
		}
		view.Chart = append(view.Chart, row)
	}

	history := state.History
	if snap.Editing {
		history = snap.Draft
	}
	for i, p := range history {
		view.History = append(view.History, HistoryRow{
			Index:       i,
			Date:        p.Date,
			DisplayDate: DisplayDate(p.Date),
			Price:       FormatPrice(p.Price),
			Value:       p.Price,
		})
	}

	return view, nil
}

// RenderMarkdown converts the market summary to HTML. Raw HTML in the input is not rendered.
func RenderMarkdown(source string) (template.HTML, error) {
	if strings.TrimSpace(source) == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("failed to render market summary: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// FormatPrice renders a price as "¥1,500.00".
func FormatPrice(price float64) string {
	fixed := decimal.NewFromFloat(price).StringFixed(2)

	negative := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	intPart, fracPart := fixed, ""
	if dot := strings.IndexByte(fixed, '.'); dot >= 0 {
		intPart, fracPart = fixed[:dot], fixed[dot:]
	}

	var grouped strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(r)
	}

	sign := ""
	if negative {
		sign = "-"
	}
	return sign + currencySymbol + grouped.String() + fracPart
}

// DisplayDate drops the year from a YYYY-MM-DD date. Other formats pass through.
func DisplayDate(date string) string {
	parts := strings.Split(date, "-")
	if len(parts) < 2 {
		return date
	}
	return strings.Join(parts[1:], "-")
}

func signed(d decimal.Decimal) string {
	s := d.StringFixed(2)
	if d.IsPositive() {
		return "+" + s
	}
	return s
}

func direction(d decimal.Decimal) string {
	switch {
	case d.IsPositive():
		return "up"
	case d.IsNegative():
		return "down"
	default:
		return "flat"
	}
}

func sentimentLabel(score *int) string {
	if score == nil {
		return ""
	}
	switch {
	case *score >= 60:
		return "Strongly bullish"
	case *score >= 20:
		return "Bullish"
	case *score > -20:
		return "Neutral"
	case *score > -60:
		return "Bearish"
	default:
		return "Strongly bearish"
	}
}
