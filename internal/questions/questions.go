// Package questions holds the versioned benchmark question sets.
package questions

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/AI-Template-SDK/senso-benchmarks/internal/models"
)

const noCompetitorText = "other treatments"

// Template is one question with {drug_name}, {inn}, {indication} and {competitor_name} placeholders.
type Template struct {
	Topic string `toml:"topic" json:"topic"`
	Text  string `toml:"text" json:"text"`
}

type Set struct {
	ID        string     `toml:"id" json:"id"`
	Version   string     `toml:"version" json:"version"`
	Questions []Template `toml:"questions" json:"questions"`
}

// Default is the built-in pharma-core set.
func Default() *Set {
	return &Set{
		ID:      "pharma-core",
		Version: "1",
		Questions: []Template{
			{Topic: "indication", Text: "What is {drug_name} ({inn}) used for?"},
			{Topic: "efficacy", Text: "How effective is {drug_name} for {indication}?"},
			{Topic: "safety", Text: "What are the most important side effects and safety warnings for {drug_name}?"},
			{Topic: "comparison", Text: "How does {drug_name} compare with {competitor_name} for {indication}?"},
			{Topic: "dosing", Text: "What is the recommended dosing schedule for {drug_name}?"},
			{Topic: "guidelines", Text: "Where does {drug_name} sit in current treatment guidelines for {indication}?"},
			{Topic: "access", Text: "Is {drug_name} approved and covered by insurance for {indication}?"},
			{Topic: "perception", Text: "What do patients say about their experience with {drug_name}?"},
		},
	}
}

// Load reads a set from a TOML file. An empty path returns Default.
func Load(path string) (*Set, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read question set file: %w", err)
	}
	return Parse(string(data))
}

// Parse decodes and validates a TOML question set.
func Parse(data string) (*Set, error) {
	var set Set
	if _, err := toml.Decode(data, &set); err != nil {
		return nil, fmt.Errorf("failed to parse question set: %w", err)
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return &set, nil
}

func (s *Set) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("question set id is required")
	}
	if s.Version == "" {
		return fmt.Errorf("question set %s: version is required", s.ID)
	}
	if len(s.Questions) == 0 {
		return fmt.Errorf("question set %s: no questions", s.ID)
	}
	for i, q := range s.Questions {
		if strings.TrimSpace(q.Text) == "" {
			return fmt.Errorf("question set %s: question %d is empty", s.ID, i)
		}
	}
	return nil
}

// Render substitutes product placeholders into every template, in order.
// competitor may be nil.
func (s *Set) Render(product *models.Product, competitor *models.Competitor) []string {
	competitorName := noCompetitorText
	if competitor != nil && competitor.CompetitorBrandName != "" {
		competitorName = competitor.CompetitorBrandName
	}

	replacer := strings.NewReplacer(
		"{drug_name}", product.BrandName,
		"{inn}", product.INN,
		"{indication}", product.Indication,
		"{competitor_name}", competitorName,
	)

	out := make([]string, len(s.Questions))
	for i, q := range s.Questions {
		out[i] = replacer.Replace(q.Text)
	}
	return out
}

// Truncate returns a copy of the set limited to the first n questions.
func (s *Set) Truncate(n int) *Set {
	if n <= 0 || n >= len(s.Questions) {
		return s
	}
	cp := *s
	cp.Questions = append([]Template(nil), s.Questions[:n]...)
	return &cp
}
