package common

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
)

// SystemPrompt frames every benchmark question.
const SystemPrompt = `You are a pharmaceutical information assistant answering questions from patients and healthcare professionals.
Answer factually and concisely, name specific products where relevant, and cite the sources you rely on with full URLs.`

// StructuredAnswer is the JSON shape requested from models that support structured output.
type StructuredAnswer struct {
	Answer     string        `json:"answer" jsonschema_description:"The complete answer to the question"`
	Confidence float64       `json:"confidence" jsonschema:"minimum=0,maximum=1" jsonschema_description:"Confidence in the factual accuracy of the answer, 0 to 1"`
	Sentiment  float64       `json:"sentiment" jsonschema:"minimum=0,maximum=1" jsonschema_description:"Overall tone towards the product asked about, 0 negative, 0.5 neutral, 1 positive"`
	Sources    []CitedSource `json:"sources" jsonschema_description:"Sources cited in the answer"`
}

// AnswerSchema is generated once at init.
var AnswerSchema = GenerateSchema[StructuredAnswer]()

func GenerateSchema[T any]() interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

// UserPrompt is the question with the JSON reply instructions, for providers that
// send SystemPrompt as a separate system message.
func UserPrompt(question string) string {
	return fmt.Sprintf(`Respond with a JSON object with these fields:
- "answer": your complete answer
- "confidence": a number from 0 to 1 for how confident you are in its accuracy
- "sentiment": a number from 0 to 1 for the tone towards the product (0.5 is neutral)
- "sources": a list of {"url", "title"} objects for the sources you cite

Question: %s`, question)
}

// BuildPrompt is the single-message form: SystemPrompt followed by UserPrompt.
func BuildPrompt(question string) string {
	return SystemPrompt + "\n\n" + UserPrompt(question)
}

// ParseCompletionText fills text, confidence, sentiment and sources from a raw reply.
// Replies that are not JSON are kept verbatim as the answer text.
func ParseCompletionText(raw string, c *Completion) {
	body := strings.TrimSpace(raw)
	body = strings.TrimPrefix(body, "```json")
	body = strings.TrimPrefix(body, "```")
	body = strings.TrimSuffix(body, "```")
	body = strings.TrimSpace(body)

	var parsed StructuredAnswer
	if err := json.Unmarshal([]byte(body), &parsed); err != nil || strings.TrimSpace(parsed.Answer) == "" {
		c.Text = strings.TrimSpace(raw)
		return
	}

	conf := clamp01(parsed.Confidence)
	sent := clamp01(parsed.Sentiment)
	c.Text = parsed.Answer
	c.Confidence = &conf
	c.Sentiment = &sent
	c.Sources = parsed.Sources
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
