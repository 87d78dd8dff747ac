package generation

// Quality is the caller's explicit preference; unset lets policy decide.
type Quality string

const (
	QualityUnset Quality = ""
	QualityBest  Quality = "best"
	QualityFast  Quality = "fast"
)

// Target says what the generated artifact is for.
type Target string

const (
	// TargetRoot is the primary keyframe of a segment.
	TargetRoot Target = "root"
	TargetShot Target = "shot"
)

// Variant names a provider model tier.
type Variant string

const (
	VariantBestFidelity Variant = "best_fidelity"
	VariantFast         Variant = "fast"
)

// ChooseVariant encodes the cost/quality tradeoff: an unset quality defaults
// to the highest-fidelity tier only when generating the root keyframe, and to
// the fastest tier everywhere else. Pure.
func ChooseVariant(explicit Quality, target Target) Variant {
	switch explicit {
	case QualityBest:
		return VariantBestFidelity
	case QualityFast:
		return VariantFast
	}
	if target == TargetRoot {
		return VariantBestFidelity
	}
	return VariantFast
}
