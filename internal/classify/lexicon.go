package classify

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ScoreCategory is one of the five scoring buckets. "lab" is a
// pseudo-category that folds into the medical category at resolution
// time; "administrative" accumulates only its fixed baseline.
type ScoreCategory string

const (
	ScoreMedical        ScoreCategory = "medical"
	ScoreLegal          ScoreCategory = "legal"
	ScoreBilling        ScoreCategory = "billing"
	ScoreLab            ScoreCategory = "lab"
	ScoreAdministrative ScoreCategory = "administrative"
)

// ScoreOrder is the declared category precedence. Winner selection is a
// left fold with strict greater-than over this order, so the first
// declared category wins ties. Keep this order stable.
var ScoreOrder = [...]ScoreCategory{
	ScoreMedical,
	ScoreLegal,
	ScoreBilling,
	ScoreLab,
	ScoreAdministrative,
}

// Lexicon maps scoring categories to lowercase filename terms. Each term
// present in a lowercased filename contributes TermWeight points to its
// category, counted once per term no matter how often it appears.
type Lexicon struct {
	TermWeight int                          `yaml:"termWeight"`
	Terms      map[ScoreCategory][]string   `yaml:"terms"`
}

// DefaultLexicon returns the built-in term lists. Spanish terms dominate
// because that is what clinic staff name their files with; the English
// equivalents cover scanner and export defaults.
func DefaultLexicon() *Lexicon {
	return &Lexicon{
		TermWeight: 25,
		Terms: map[ScoreCategory][]string{
			ScoreMedical: {
				"radiografia", "rx", "xray", "panoramica", "tac",
				"ortodoncia", "implante", "endodoncia", "tratamiento",
				"diagnostico", "receta", "clinica",
			},
			ScoreLegal: {
				"consentimiento", "consent", "contrato", "contract",
				"lopd", "rgpd", "gdpr", "legal", "autorizacion",
			},
			ScoreBilling: {
				"factura", "invoice", "recibo", "receipt", "presupuesto",
				"pago", "payment", "albaran",
			},
			ScoreLab: {
				"analisis", "analitica", "laboratorio", "hemograma",
				"cultivo", "biopsia",
			},
		},
	}
}

// Hits returns the distinct terms of a category present in the already
// lowercased filename.
func (l *Lexicon) Hits(lowerName string, cat ScoreCategory) []string {
	var hits []string
	for _, term := range l.Terms[cat] {
		if strings.Contains(lowerName, term) {
			hits = append(hits, term)
		}
	}
	return hits
}

// LoadLexicon reads a YAML lexicon file. Omitted fields keep their
// built-in defaults, so a config file may override a single term list.
func LoadLexicon(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lexicon file: %w", err)
	}

	lex := DefaultLexicon()
	var override Lexicon
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("failed to parse lexicon file: %w", err)
	}

	if override.TermWeight > 0 {
		lex.TermWeight = override.TermWeight
	}
	for cat, terms := range override.Terms {
		lex.Terms[cat] = terms
	}

	return lex, nil
}
