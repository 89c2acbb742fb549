package prediction

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

const endToEndJSON = `{"current_price":1500,"history":[{"date":"2025-01-01","price":1490},{"date":"2025-01-02","price":1495},{"date":"2025-01-03","price":1500},{"date":"2025-01-04","price":1505},{"date":"2025-01-05","price":1500}],"forecast":[{"date":"2025-01-06","price":1502}],"market_summary":"stable","sentiment_score":10}`

const fiveDayHistory = `[{"date":"2025-01-01","price":1490},{"date":"2025-01-02","price":1495},{"date":"2025-01-03","price":1500},{"date":"2025-01-04","price":1505},{"date":"2025-01-05","price":1500}]`

func TestNormalizeEndToEnd(t *testing.T) {
	data, err := Normalize(endToEndJSON, NormalizeOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1500.0, data.CurrentPrice)
	assert.Len(t, data.History, 5)
	require.Len(t, data.Prediction, 1)
	assert.Equal(t, "2025-01-06", data.Prediction[0].Date)
	assert.Equal(t, "stable", data.MarketSummary)
	assert.Equal(t, 10, data.SentimentScore)
	assert.Nil(t, data.Prediction[0].UpperBound)
	assert.Nil(t, data.Prediction[0].LowerBound)
}

func TestNormalizeDefaultFilling(t *testing.T) {
	data, err := Normalize(`{"current_price":1500,"history":`+fiveDayHistory+`}`, NormalizeOptions{})
	require.NoError(t, err)

	assert.Equal(t, "", data.MarketSummary)
	assert.Equal(t, 0, data.SentimentScore)
	require.NotNil(t, data.Prediction)
	assert.Empty(t, data.Prediction)
}

func TestNormalizeWrongTypesFallBackToDefaults(t *testing.T) {
	data, err := Normalize(`{
		"current_price": 1500,
		"market_summary": 42,
		"sentiment_score": "bullish",
		"forecast": {"date": "2025-01-06"},
		"history": `+fiveDayHistory+`
	}`, NormalizeOptions{})
	require.NoError(t, err)

	assert.Equal(t, "", data.MarketSummary)
	assert.Equal(t, 0, data.SentimentScore)
	assert.Empty(t, data.Prediction)
}

func TestNormalizeBoundPassthrough(t *testing.T) {
	data, err := Normalize(`{
		"current_price": 1500,
		"history": `+fiveDayHistory+`,
		"forecast": [
			{"date":"2025-01-06","price":1502,"upper_bound":1520,"lower_bound":1490},
			{"date":"2025-01-07","price":1504,"upper_bound":"high","lower_bound":null},
			{"date":"2025-01-08","price":1506,"upper_bound":1480,"lower_bound":1530}
		]
	}`, NormalizeOptions{Logger: arbor.NewLogger()})
	require.NoError(t, err)
	require.Len(t, data.Prediction, 3)

	first := data.Prediction[0]
	require.NotNil(t, first.UpperBound)
	require.NotNil(t, first.LowerBound)
	assert.Equal(t, 1520.0, *first.UpperBound)
	assert.Equal(t, 1490.0, *first.LowerBound)
	assert.True(t, first.BoundsOrdered())

	assert.Nil(t, data.Prediction[1].UpperBound)
	assert.Nil(t, data.Prediction[1].LowerBound)

	// Misordered bounds are kept as given
	third := data.Prediction[2]
	assert.Equal(t, 1480.0, *third.UpperBound)
	assert.Equal(t, 1530.0, *third.LowerBound)
	assert.False(t, third.BoundsOrdered())
}

func TestNormalizeHistoryIgnoresBounds(t *testing.T) {
	data, err := Normalize(`{"current_price":1500,"history":[
		{"date":"2025-01-01","price":1490,"upper_bound":1500,"lower_bound":1480},
		{"date":"2025-01-02","price":1495},{"date":"2025-01-03","price":1500},
		{"date":"2025-01-04","price":1505},{"date":"2025-01-05","price":1500}]}`, NormalizeOptions{})
	require.NoError(t, err)
	assert.False(t, data.History[0].HasBounds())
}

func TestNormalizeDropsMalformedEntriesAndKeepsOrder(t *testing.T) {
	data, err := Normalize(`{"current_price":1500,"history":[
		{"date":"2025-01-05","price":1500},
		"junk",
		{"date":"2025-01-01"},
		{"price":1490},
		{"date":"2025-01-02","price":-3},
		{"date":"","price":1490},
		{"date":"2025-01-03","price":"1500"},
		{"date":"2025-01-01","price":1490},
		{"date":"2025-01-01","price":1490},
		{"date":"2025-01-04","price":1505},
		{"date":"2025-01-02","price":0}
	]}`, NormalizeOptions{})
	require.NoError(t, err)

	dates := make([]string, 0, len(data.History))
	for _, p := range data.History {
		dates = append(dates, p.Date)
	}
	assert.Equal(t, []string{"2025-01-05", "2025-01-01", "2025-01-01", "2025-01-04", "2025-01-02"}, dates)
}

func TestNormalizeSentimentRoundedAndClamped(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"10", 10},
		{"12.6", 13},
		{"-12.4", -12},
		{"250", 100},
		{"-1000", -100},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			data, err := Normalize(`{"current_price":1500,"sentiment_score":`+tt.raw+`,"history":`+fiveDayHistory+`}`, NormalizeOptions{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, data.SentimentScore)
		})
	}
}

func TestNormalizeSufficiencyGate(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		minHistory int
		wantErr    bool
	}{
		{"zero price strict", `{"current_price":0,"history":` + fiveDayHistory + `}`, 5, true},
		{"zero price lenient", `{"current_price":0,"history":` + fiveDayHistory + `}`, 1, true},
		{"missing price", `{"history":` + fiveDayHistory + `}`, 1, true},
		{"negative price", `{"current_price":-1,"history":` + fiveDayHistory + `}`, 1, true},
		{"empty history strict", `{"current_price":1500,"history":[]}`, 5, true},
		{"empty history lenient", `{"current_price":1500,"history":[]}`, 1, true},
		{"one entry strict", `{"current_price":1500,"history":[{"date":"2025-01-05","price":1500}]}`, 5, true},
		{"one entry lenient", `{"current_price":1500,"history":[{"date":"2025-01-05","price":1500}]}`, 1, false},
		{"five entries strict", `{"current_price":1500,"history":` + fiveDayHistory + `}`, 5, false},
		{"default threshold", `{"current_price":1500,"history":[{"date":"2025-01-05","price":1500}]}`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Normalize(tt.raw, NormalizeOptions{MinHistory: tt.minHistory})
			if !tt.wantErr {
				require.NoError(t, err)
				assert.NotNil(t, data)
				return
			}
			require.Error(t, err)
			assert.Nil(t, data)
			var insufficient *InsufficientDataError
			assert.True(t, errors.As(err, &insufficient), "expected InsufficientDataError, got %T", err)
			assert.Equal(t, MessageInsufficientData, insufficient.UserMessage())
		})
	}
}

func TestNormalizeParseFailure(t *testing.T) {
	for _, raw := range []string{"not json", "[1,2,3]", `"text"`, "42", "null", `{"current_price":1500`, `{} trailing`} {
		t.Run(raw, func(t *testing.T) {
			data, err := Normalize(raw, NormalizeOptions{})
			assert.Nil(t, data)

			var parseErr *ParseError
			require.True(t, errors.As(err, &parseErr), "expected ParseError, got %T", err)
			assert.Equal(t, MessageParse, parseErr.UserMessage())
		})
	}
}

func TestNormalizeEmptyTextTreatedAsEmptyObject(t *testing.T) {
	for _, raw := range []string{"", "   \n"} {
		data, err := Normalize(raw, NormalizeOptions{})
		assert.Nil(t, data)

		var insufficient *InsufficientDataError
		assert.True(t, errors.As(err, &insufficient), "expected InsufficientDataError, got %T", err)
	}
}
