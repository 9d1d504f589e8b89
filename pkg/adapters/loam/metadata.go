package loam

// SurveyMetadata is the header of a survey document.
// It uses "mapstructure" tags to match Frontmatter/YAML keys as written by the editor.
type SurveyMetadata struct {
	ID            string         `json:"id" mapstructure:"id"`
	UserID        string         `json:"userId" mapstructure:"userId"`
	Title         string         `json:"title" mapstructure:"title"`
	Description   string         `json:"description" mapstructure:"description"`
	Status        string         `json:"status" mapstructure:"status"`
	EnableScoring bool           `json:"enableScoring" mapstructure:"enableScoring"`
	TimeLimit     any            `json:"timeLimit" mapstructure:"timeLimit"`
	Prize         string         `json:"prize" mapstructure:"prize"`
	CreatedAt     any            `json:"createdAt" mapstructure:"createdAt"`
	UpdatedAt     any            `json:"updatedAt" mapstructure:"updatedAt"`
	Nodes         []NodeMetadata `json:"nodes" mapstructure:"nodes"`
	Edges         []EdgeMetadata `json:"edges" mapstructure:"edges"`
}

// NodeMetadata is one node entry. Data is decoded according to Type.
type NodeMetadata struct {
	ID       string         `json:"id" mapstructure:"id"`
	Type     string         `json:"type" mapstructure:"type"`
	Position map[string]any `json:"position" mapstructure:"position"`
	Data     map[string]any `json:"data" mapstructure:"data"`
}

// EdgeMetadata is one edge entry.
// Besides the editor's nested "data" block, the discriminator may be written inline
// ("option", "rating") for hand-authored documents.
type EdgeMetadata struct {
	ID           string         `json:"id" mapstructure:"id"`
	Source       string         `json:"source" mapstructure:"source"`
	Target       string         `json:"target" mapstructure:"target"`
	SourceHandle string         `json:"sourceHandle" mapstructure:"sourceHandle"`
	Data         map[string]any `json:"data" mapstructure:"data"`
	Option       string         `json:"option" mapstructure:"option"`
	Rating       any            `json:"rating" mapstructure:"rating"`
	Label        string         `json:"label" mapstructure:"label"`
}
