// Package prompt extracts the coarse features of a generation prompt that
// drive backend selection: artistic-style references, vocabulary hits for
// style/color/mood, subject concepts, and token length.
package prompt

import (
	"strings"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
	"github.com/rs/zerolog"

	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain/model"
)

// styleReferences are named artistic styles and artists whose presence in
// a prompt strongly suggests a style-transfer generation.
var styleReferences = []string{
	"van gogh", "monet", "picasso", "kandinsky", "hokusai",
	"impressionist", "cubist", "surreal", "abstract expressionism",
	"pop art", "renaissance", "baroque", "art nouveau",
}

// concepts are subjects the diffusion backend renders well.
var concepts = []string{
	"portrait", "landscape", "fantasy", "sci-fi", "character", "nature",
}

var lightingCues = []string{
	"lighting", "light", "glow", "shadow", "sunset", "sunrise",
	"golden hour", "backlit", "luminous",
}

var textureCues = []string{
	"texture", "textured", "grain", "brushstroke", "rough", "smooth",
	"weathered", "glossy",
}

// Features is the analyzer output consumed by the orchestrator's
// selection heuristics and surfaced in job metadata.
type Features struct {
	Tokens          int      `json:"tokens"`
	Length          int      `json:"length"`
	StyleReferences []string `json:"style_references,omitempty"`
	Styles          []string `json:"styles,omitempty"`
	Colors          []string `json:"colors,omitempty"`
	Mood            string   `json:"mood,omitempty"`
	Concepts        []string `json:"concepts,omitempty"`
	HasLighting     bool     `json:"has_lighting"`
	HasTexture      bool     `json:"has_texture"`
}

type Analyzer struct {
	enc *tiktoken.Tiktoken
	log zerolog.Logger
}

// NewAnalyzer loads the cl100k_base tokenizer. When the encoding data is
// unavailable (offline environments) the analyzer degrades to rune counts.
func NewAnalyzer(logger *zerolog.Logger) *Analyzer {
	log := logger.With().Str("component", "prompt").Logger()
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		log.Warn().Err(err).Msg("tokenizer unavailable, falling back to rune counts")
		enc = nil
	}
	return &Analyzer{enc: enc, log: log}
}

func (a *Analyzer) Analyze(text string) Features {
	lower := strings.ToLower(text)
	f := Features{
		Tokens:          a.countTokens(text),
		Length:          utf8.RuneCountInString(text),
		StyleReferences: matchAll(lower, styleReferences),
		Styles:          matchAll(lower, model.KnownStyles),
		Colors:          matchAll(lower, model.KnownColors),
		Concepts:        matchAll(lower, concepts),
		HasLighting:     matchAny(lower, lightingCues),
		HasTexture:      matchAny(lower, textureCues),
	}
	// Mood classification keeps the first vocabulary hit only.
	for _, mood := range model.KnownMoods {
		if strings.Contains(lower, mood) {
			f.Mood = mood
			break
		}
	}
	return f
}

func (a *Analyzer) countTokens(text string) int {
	if a.enc == nil {
		return utf8.RuneCountInString(text)
	}
	return len(a.enc.Encode(text, nil, nil))
}

func matchAll(text string, vocab []string) []string {
	var out []string
	for _, v := range vocab {
		if strings.Contains(text, v) {
			out = append(out, v)
		}
	}
	return out
}

func matchAny(text string, vocab []string) bool {
	for _, v := range vocab {
		if strings.Contains(text, v) {
			return true
		}
	}
	return false
}
