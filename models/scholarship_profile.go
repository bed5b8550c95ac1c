package models

// KeywordTiers groups extracted keywords by how strongly the description stresses them.
type KeywordTiers struct {
	HighIntensity   []string `json:"high_intensity"`
	MediumIntensity []string `json:"medium_intensity"`
	LowIntensity    []string `json:"low_intensity"`
	Negative        []string `json:"negative"`
}

// FactorWeights holds the normalised importance of each selection factor.
type FactorWeights struct {
	Academics        float64 `json:"academics"`
	Leadership       float64 `json:"leadership"`
	CommunityService float64 `json:"community_service"`
	FinancialNeed    float64 `json:"financial_need"`
	Innovation       float64 `json:"innovation"`
	Research         float64 `json:"research"`
	Resilience       float64 `json:"resilience"`
	Extracurriculars float64 `json:"extracurriculars"`
	DEI              float64 `json:"dei"`
	Creativity       float64 `json:"creativity"`
}

// Values returns pointers to every weight, in declaration order.
func (w *FactorWeights) Values() []*float64 {
	return []*float64{
		&w.Academics, &w.Leadership, &w.CommunityService, &w.FinancialNeed, &w.Innovation,
		&w.Research, &w.Resilience, &w.Extracurriculars, &w.DEI, &w.Creativity,
	}
}

type FactorExplanations struct {
	Academics        []string `json:"academics"`
	Leadership       []string `json:"leadership"`
	CommunityService []string `json:"community_service"`
	FinancialNeed    []string `json:"financial_need"`
	Innovation       []string `json:"innovation"`
	Research         []string `json:"research"`
	Resilience       []string `json:"resilience"`
	Extracurriculars []string `json:"extracurriculars"`
	DEI              []string `json:"dei"`
	Creativity       []string `json:"creativity"`
}

// ScholarshipProfile is the structured reading of a scholarship description.
type ScholarshipProfile struct {
	ExplicitRequirements   []string           `json:"explicit_requirements"`
	ImplicitValues         []string           `json:"implicit_values"`
	Keywords               KeywordTiers       `json:"keywords"`
	Tone                   string             `json:"tone"`
	StoryStyle             string             `json:"story_style"`
	ComparativeInsights    []string           `json:"comparative_insights"`
	Weights                FactorWeights      `json:"weights"`
	Explanations           FactorExplanations `json:"explanations"`
	ScholarshipPersonality string             `json:"scholarship_personality"`
}
