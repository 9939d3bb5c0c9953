// services/source_evaluator_service.go
package services

import (
	"math"
	"net/url"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
	"mvdan.cc/xurls/v2"

	"github.com/AI-Template-SDK/senso-benchmarks/internal/models"
)

const (
	UnknownDomain    = "unknown-domain"
	DefaultAuthority = 0.80
	NeutralSentiment = 0.5
)

// Authority tiers keyed by registrable domain or host suffix.
var domainAuthority = map[string]float64{
	// regulators and public health
	"fda.gov":            0.95,
	"ema.europa.eu":      0.95,
	"who.int":            0.95,
	"nih.gov":            0.95,
	"cdc.gov":            0.95,
	"nice.org.uk":        0.95,
	"clinicaltrials.gov": 0.94,
	// journals
	"nejm.org":                0.93,
	"thelancet.com":           0.93,
	"bmj.com":                 0.93,
	"jamanetwork.com":         0.93,
	"nature.com":              0.92,
	"cochranelibrary.com":     0.93,
	"pubmed.ncbi.nlm.nih.gov": 0.94,
	// clinical references
	"drugs.com":           0.90,
	"medscape.com":        0.90,
	"mayoclinic.org":      0.90,
	"uptodate.com":        0.91,
	"clevelandclinic.org": 0.90,
	"medlineplus.gov":     0.92,
}

// Public suffixes treated as institutional when the domain is not listed.
var institutionalSuffixes = map[string]float64{
	"gov":    0.90,
	"gov.uk": 0.90,
	"edu":    0.90,
}

var positiveWords = []string{"effective", "safe", "approved", "beneficial", "recommended", "first-line"}
var negativeWords = []string{"side effects", "contraindicated", "warning", "risk", "adverse", "caution"}

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".svg", ".webp"}

type sourceEvaluatorService struct {
	logger *zap.Logger
}

func NewSourceEvaluatorService(logger *zap.Logger) SourceEvaluatorService {
	return &sourceEvaluatorService{logger: logger}
}

// Evaluate normalizes raw citations. Missing domain, authority and sentiment are derived.
// Empty and image URLs are dropped, and repeats within the list keep their first entry.
func (s *sourceEvaluatorService) Evaluate(raw []RawSource) []*models.Source {
	seen := make(map[string]bool, len(raw))
	out := make([]*models.Source, 0, len(raw))

	for _, r := range raw {
		cleaned, ok := cleanURL(r.URL)
		if !ok {
			continue
		}
		if seen[cleaned] {
			continue
		}
		seen[cleaned] = true

		domain := strings.ToLower(strings.TrimSpace(r.Domain))
		if domain == "" {
			domain = s.DomainOf(cleaned)
		}

		authority := s.Authority(domain)
		if r.AuthorityScore != nil {
			authority = clampUnit(*r.AuthorityScore)
		}

		sentiment := s.Sentiment(strings.TrimSpace(r.Title + " " + r.Snippet))
		if r.Sentiment != nil {
			sentiment = clampUnit(*r.Sentiment)
		}

		out = append(out, &models.Source{
			URL:            cleaned,
			Domain:         domain,
			Title:          strings.TrimSpace(r.Title),
			AuthorityScore: authority,
			Sentiment:      sentiment,
		})
	}
	return out
}

// ExtractFromText finds http(s) links in free text.
func (s *sourceEvaluatorService) ExtractFromText(text string) []RawSource {
	var out []RawSource
	seen := make(map[string]bool)

	for _, match := range xurls.Strict().FindAllString(text, -1) {
		cleaned, ok := cleanURL(strings.TrimRight(match, ".,;:)"))
		if !ok || seen[cleaned] {
			continue
		}
		u, err := url.Parse(cleaned)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			continue
		}
		seen[cleaned] = true
		out = append(out, RawSource{URL: cleaned})
	}

	s.logger.Debug("[ExtractFromText] extracted inline citations", zap.Int("count", len(out)))
	return out
}

// Dedupe keeps the first source for every URL, preserving order.
func (s *sourceEvaluatorService) Dedupe(sources []*models.Source) []*models.Source {
	seen := make(map[string]bool, len(sources))
	out := make([]*models.Source, 0, len(sources))
	for _, src := range sources {
		if seen[src.URL] {
			continue
		}
		seen[src.URL] = true
		out = append(out, src)
	}
	return out
}

// DomainOf returns the lower-cased host without "www.", or UnknownDomain.
func (s *sourceEvaluatorService) DomainOf(rawURL string) string {
	urlStr := strings.TrimSpace(rawURL)
	if urlStr == "" {
		return UnknownDomain
	}
	if !strings.Contains(urlStr, "://") {
		urlStr = "https://" + urlStr
	}

	u, err := url.Parse(urlStr)
	if err != nil {
		return UnknownDomain
	}
	host := strings.ToLower(u.Hostname())
	if host == "" || !strings.Contains(host, ".") || strings.ContainsAny(host, " _") {
		return UnknownDomain
	}
	return strings.TrimPrefix(host, "www.")
}

// Authority is a deterministic lookup by domain.
func (s *sourceEvaluatorService) Authority(domain string) float64 {
	domain = strings.TrimPrefix(strings.ToLower(domain), "www.")
	if domain == "" || domain == UnknownDomain {
		return DefaultAuthority
	}

	if score, ok := domainAuthority[domain]; ok {
		return score
	}

	// Longest listed suffix wins, so pubmed.ncbi.nlm.nih.gov beats nih.gov.
	best, bestLen := 0.0, 0
	for known, score := range domainAuthority {
		if strings.HasSuffix(domain, "."+known) && len(known) > bestLen {
			best, bestLen = score, len(known)
		}
	}
	if bestLen > 0 {
		return best
	}

	if base, err := publicsuffix.EffectiveTLDPlusOne(domain); err == nil {
		if score, ok := domainAuthority[base]; ok {
			return score
		}
	}
	suffix, icann := publicsuffix.PublicSuffix(domain)
	if score, ok := institutionalSuffixes[suffix]; ok && icann {
		return score
	}
	return DefaultAuthority
}

// Sentiment starts neutral and moves 0.1 per listed word or phrase present in text.
// Only whole tokens match, so "unsafe" does not count as "safe".
func (s *sourceEvaluatorService) Sentiment(text string) float64 {
	tokens := tokenize(text)
	score := NeutralSentiment
	for _, w := range positiveWords {
		if containsPhrase(tokens, strings.Fields(w)) {
			score += 0.1
		}
	}
	for _, w := range negativeWords {
		if containsPhrase(tokens, strings.Fields(w)) {
			score -= 0.1
		}
	}
	return round4(clampUnit(score))
}

// tokenize lowercases text and splits it on anything but letters, digits and hyphens.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
}

func containsPhrase(tokens, phrase []string) bool {
	if len(phrase) == 0 {
		return false
	}
	for i := 0; i+len(phrase) <= len(tokens); i++ {
		match := true
		for j, p := range phrase {
			if tokens[i+j] != p {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// cleanURL strips "www.", utm_ parameters and the trailing slash.
// Unparseable URLs are kept as given so the citation is not lost.
func cleanURL(raw string) (string, bool) {
	urlStr := strings.TrimSpace(raw)
	if urlStr == "" {
		return "", false
	}

	u, err := url.Parse(urlStr)
	if err != nil || u.Host == "" {
		return urlStr, true
	}

	u.Host = strings.TrimPrefix(u.Host, "www.")
	q := u.Query()
	for param := range q {
		if strings.HasPrefix(strings.ToLower(param), "utm_") {
			q.Del(param)
		}
	}
	u.RawQuery = q.Encode()

	pathLower := strings.ToLower(u.Path)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(pathLower, ext) {
			return "", false
		}
	}

	finalURL := strings.TrimRight(u.String(), "/")
	return finalURL, finalURL != ""
}

func clampUnit(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
