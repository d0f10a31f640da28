package classify

import (
	"fmt"
	"strings"
)

// Scoring constants. The reference behavior derives confidence as
// score/100 capped below 1.0; individual category scores are
// deliberately not clamped at 100.
const (
	imageBonus    = 40
	dicomBonus    = 50
	largePDFBonus = 20
	smallPDFBonus = 15
	largeBonus    = 30
	adminBaseline = 10

	largePDFThreshold = 5 * 1024 * 1024
	smallPDFThreshold = 500 * 1024
	largeThreshold    = 10 * 1024 * 1024

	confidenceCap = 0.95
)

// ScoreResult holds the five raw category scores, the winning category
// under the declared precedence, the derived confidence and the list of
// signals that contributed.
type ScoreResult struct {
	Scores     map[ScoreCategory]int
	Winner     ScoreCategory
	Confidence float64
	Reasons    []string
}

// Scorer turns a filename, MIME type and size into category scores.
type Scorer struct {
	lexicon *Lexicon
}

func NewScorer(lexicon *Lexicon) *Scorer {
	if lexicon == nil {
		lexicon = DefaultLexicon()
	}
	return &Scorer{lexicon: lexicon}
}

// Score applies every rule independently and sums within categories.
// All contributing scores are non-negative, so confidence never goes
// below zero; it is capped at 0.95 so only a human can fully confirm.
func (s *Scorer) Score(name, mimeType string, sizeBytes int64) ScoreResult {
	lowerName := fold(name)
	lowerMime := strings.ToLower(mimeType)

	scores := map[ScoreCategory]int{
		ScoreMedical:        0,
		ScoreLegal:          0,
		ScoreBilling:        0,
		ScoreLab:            0,
		ScoreAdministrative: adminBaseline,
	}
	var reasons []string

	for _, cat := range []ScoreCategory{ScoreMedical, ScoreLegal, ScoreBilling, ScoreLab} {
		hits := s.lexicon.Hits(lowerName, cat)
		if len(hits) == 0 {
			continue
		}
		scores[cat] += len(hits) * s.lexicon.TermWeight
		reasons = append(reasons, fmt.Sprintf("%s terms in filename: %s", cat, strings.Join(hits, ", ")))
	}

	if strings.HasPrefix(lowerMime, "image/") {
		scores[ScoreMedical] += imageBonus
		reasons = append(reasons, "image content type suggests clinical imagery")
	}
	if strings.Contains(lowerMime, "dicom") {
		scores[ScoreMedical] += dicomBonus
		reasons = append(reasons, "DICOM content type")
	}

	if isPDF(lowerName, lowerMime) {
		if sizeBytes > largePDFThreshold {
			scores[ScoreMedical] += largePDFBonus
			reasons = append(reasons, "large PDF, typical of scanned clinical records")
		}
		if sizeBytes > 0 && sizeBytes < smallPDFThreshold {
			scores[ScoreBilling] += smallPDFBonus
			scores[ScoreLegal] += smallPDFBonus
			reasons = append(reasons, "small PDF, typical of invoices and signed forms")
		}
	}

	if sizeBytes > largeThreshold {
		scores[ScoreMedical] += largeBonus
		reasons = append(reasons, "file size over 10MB")
	}

	// Left fold with strict greater-than over the declared order: the
	// first declared category keeps ties.
	winner := ScoreOrder[0]
	for _, cat := range ScoreOrder[1:] {
		if scores[cat] > scores[winner] {
			winner = cat
		}
	}

	if len(reasons) == 0 {
		reasons = append(reasons, "no recognizable signals, defaulting to administrative")
	}

	confidence := float64(scores[winner]) / 100
	if confidence > confidenceCap {
		confidence = confidenceCap
	}
	if confidence < 0 {
		confidence = 0
	}

	return ScoreResult{
		Scores:     scores,
		Winner:     winner,
		Confidence: confidence,
		Reasons:    reasons,
	}
}

func isPDF(lowerName, lowerMime string) bool {
	return lowerMime == "application/pdf" || strings.HasSuffix(lowerName, ".pdf")
}
