package common

// CitedSource is a citation returned by a model alongside its answer.
type CitedSource struct {
	URL   string `json:"url" jsonschema_description:"Full URL of the cited source"`
	Title string `json:"title" jsonschema_description:"Title of the cited page or publication"`
}

// Completion is the normalized result of one provider call.
// Confidence and Sentiment are nil when the model replied in plain text.
type Completion struct {
	Text             string
	Confidence       *float64
	Sentiment        *float64
	Sources          []CitedSource
	PromptTokens     int
	CompletionTokens int
	Cost             float64
	Model            string
}

// TotalTokens returns prompt plus completion tokens.
func (c *Completion) TotalTokens() int {
	return c.PromptTokens + c.CompletionTokens
}

// CostCalculator prices a call from its token usage.
type CostCalculator interface {
	CalculateCost(provider, model string, inputTokens, outputTokens int) float64
}
