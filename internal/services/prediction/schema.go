package prediction

// ResponseSchema is the output shape declared to the model. It is a hint only:
// Normalize checks every field independently.
func ResponseSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"market_summary": map[string]interface{}{
				"type":        "string",
				"description": "Short markdown summary of the market",
			},
			"sentiment_score": map[string]interface{}{
				"type":        "number",
				"description": "Market sentiment from -100 (bearish) to 100 (bullish)",
			},
			"current_price": map[string]interface{}{
				"type":        "number",
				"description": "Today's wholesale price in CNY",
			},
			"history": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"date":  map[string]interface{}{"type": "string", "description": "YYYY-MM-DD"},
						"price": map[string]interface{}{"type": "number"},
					},
					"required": []string{"date", "price"},
				},
			},
			"forecast": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"date":        map[string]interface{}{"type": "string", "description": "YYYY-MM-DD"},
						"price":       map[string]interface{}{"type": "number"},
						"upper_bound": map[string]interface{}{"type": "number"},
						"lower_bound": map[string]interface{}{"type": "number"},
					},
					"required": []string{"date", "price", "upper_bound", "lower_bound"},
				},
			},
		},
		"required": []string{"market_summary", "sentiment_score", "current_price", "history", "forecast"},
	}
}
