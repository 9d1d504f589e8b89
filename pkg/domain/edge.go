package domain

// EdgeData holds the optional discriminator of an edge.
// OptionID and RatingValue are mutually exclusive; an edge carrying neither is a default edge.
type EdgeData struct {
	OptionID    string `json:"optionId,omitempty" mapstructure:"optionId"`
	RatingValue *int   `json:"ratingValue,omitempty" mapstructure:"ratingValue"`
	Label       string `json:"label,omitempty" mapstructure:"label"`
}

// Edge is a directed transition between two nodes.
type Edge struct {
	ID           string    `json:"id,omitempty"`
	Source       string    `json:"source"`
	Target       string    `json:"target"`
	SourceHandle string    `json:"sourceHandle,omitempty"`
	Data         *EdgeData `json:"data,omitempty"`
}

// OptionID returns the option discriminator, or "" when the edge has none.
func (e Edge) OptionID() string {
	if e.Data == nil {
		return ""
	}
	return e.Data.OptionID
}

// RatingValue returns the rating discriminator, if any.
func (e Edge) RatingValue() (int, bool) {
	if e.Data == nil || e.Data.RatingValue == nil {
		return 0, false
	}
	return *e.Data.RatingValue, true
}

// IsDefault reports whether the edge carries no discriminator.
func (e Edge) IsDefault() bool {
	_, hasRating := e.RatingValue()
	return e.OptionID() == "" && !hasRating
}

// Label returns the edge display label.
func (e Edge) Label() string {
	if e.Data == nil {
		return ""
	}
	return e.Data.Label
}

// DefaultEdge builds an unconditional edge.
func DefaultEdge(source, target string) Edge {
	return Edge{ID: source + "-" + target, Source: source, Target: target}
}

// OptionEdge builds an edge activated by a single option.
func OptionEdge(source, target, optionID string) Edge {
	return Edge{
		ID:     source + "-" + optionID + "-" + target,
		Source: source,
		Target: target,
		Data:   &EdgeData{OptionID: optionID},
	}
}

// RatingEdge builds an edge activated by one exact rating value.
func RatingEdge(source, target string, value int) Edge {
	v := value
	return Edge{
		Source: source,
		Target: target,
		Data:   &EdgeData{RatingValue: &v},
	}
}
