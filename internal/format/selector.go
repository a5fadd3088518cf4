package format

import (
	"fmt"
	"strings"
)

// Selector syntax fragments understood by yt-dlp
const (
	BestVideoAny   = "bv*"
	BestAudioAlias = "ba"
	BestAudio      = "bestaudio"
	BestCombined   = "best"
	PreferredVideo = "mp4"
	PreferredAudio = "m4a"
	AlternativeSep = "/"
	MergeSep       = "+"

	langFilterFmt  = "[lang=%s]"
	extFilterFmt   = "[ext=%s]"
	exactHeightFmt = "[height=%d]"
	maxHeightFmt   = "[height<=%d]"
)

// DefaultMaxHeight caps the high quality path at 1080p
const DefaultMaxHeight = 1080

// DefaultLanguages is the audio language priority used when none is configured
var DefaultLanguages = []string{"ko", "en-US", "en"}

// Selector describes the preferred audio languages and video height.
// Zero heights mean "unset". When both are set ExactHeight wins.
type Selector struct {
	Languages   []string
	MaxHeight   int
	ExactHeight int
	PreferMP4   bool
}

// Default returns the selector used by the high quality path
func Default() Selector {
	langs := make([]string, len(DefaultLanguages))
	copy(langs, DefaultLanguages)
	return Selector{
		Languages: langs,
		MaxHeight: DefaultMaxHeight,
		PreferMP4: true,
	}
}

// AudioChain returns audio alternatives in priority order: each language with
// the m4a container, then the same language in any container, followed by the
// two unconditional fallbacks.
func (s Selector) AudioChain() []string {
	terms := make([]string, 0, 2*len(s.Languages)+2)
	for _, lang := range s.Languages {
		lf := fmt.Sprintf(langFilterFmt, lang)
		terms = append(terms,
			BestAudioAlias+lf+fmt.Sprintf(extFilterFmt, PreferredAudio),
			BestAudioAlias+lf,
		)
	}
	return append(terms,
		BestAudio+fmt.Sprintf(extFilterFmt, PreferredAudio),
		BestAudio,
	)
}

// heightClause returns the height filter shared by every video tier
func (s Selector) heightClause() string {
	switch {
	case s.ExactHeight > 0:
		return fmt.Sprintf(exactHeightFmt, s.ExactHeight)
	case s.MaxHeight > 0:
		return fmt.Sprintf(maxHeightFmt, s.MaxHeight)
	default:
		return ""
	}
}

// VideoTiers returns the container-constrained video clause, the unconstrained
// one and the terminal combined best-effort clause.
func (s Selector) VideoTiers() [3]string {
	h := s.heightClause()
	ext := ""
	if s.PreferMP4 {
		ext = fmt.Sprintf(extFilterFmt, PreferredVideo)
	}
	return [3]string{
		BestVideoAny + h + ext,
		BestVideoAny + h,
		BestCombined + h,
	}
}

// Build composes "(v1)+(audio)/(v2)+(audio)/(v3)". yt-dlp evaluates the
// alternatives left to right and uses the first that resolves.
func (s Selector) Build() string {
	audio := "(" + strings.Join(s.AudioChain(), AlternativeSep) + ")"
	tiers := s.VideoTiers()
	return strings.Join([]string{
		tiers[0] + MergeSep + audio,
		tiers[1] + MergeSep + audio,
		tiers[2],
	}, AlternativeSep)
}

// String implements fmt.Stringer
func (s Selector) String() string {
	return s.Build()
}

// ParseLanguages splits a comma separated language list, dropping blanks
func ParseLanguages(csv string) []string {
	var langs []string
	for _, part := range strings.Split(csv, ",") {
		if lang := strings.TrimSpace(part); lang != "" {
			langs = append(langs, lang)
		}
	}
	return langs
}
