package domain

import "time"

// SurveyStatus is the publication state of a survey.
type SurveyStatus string

const (
	SurveyDraft     SurveyStatus = "draft"
	SurveyPublished SurveyStatus = "published"
	SurveyFinished  SurveyStatus = "finished"
	SurveyArchived  SurveyStatus = "archived"
)

// Graph is the immutable input of an attempt.
type Graph struct {
	Nodes         []Node `json:"nodes"`
	Edges         []Edge `json:"edges"`
	EnableScoring bool   `json:"enableScoring,omitempty"`
}

// Survey is a stored survey document: a graph plus its descriptive fields.
type Survey struct {
	ID            string       `json:"id"`
	UserID        string       `json:"userId,omitempty"`
	Title         string       `json:"title"`
	Description   string       `json:"description,omitempty"`
	Status        SurveyStatus `json:"status,omitempty"`
	ResponseCount int          `json:"responseCount"`
	// TimeLimit is expressed in minutes. Enforcement belongs to the respondent surface.
	TimeLimit int       `json:"timeLimit,omitempty"`
	Prize     string    `json:"prize,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`

	Graph
}

// Accepting reports whether respondents may start attempts. An unset status counts as published.
func (s *Survey) Accepting() bool {
	return s.Status == "" || s.Status == SurveyPublished
}

// Public returns a copy safe to hand to respondents (owner stripped).
func (s *Survey) Public() *Survey {
	cp := *s
	cp.UserID = ""
	return &cp
}

// NodeByID returns the node with the given id.
func (g *Graph) NodeByID(id string) (*Node, bool) {
	if g == nil || id == "" {
		return nil, false
	}
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i], true
		}
	}
	return nil, false
}

// OutgoingEdges returns the edges leaving id, in declared order.
func (g *Graph) OutgoingEdges(id string) []Edge {
	if g == nil {
		return nil
	}
	var out []Edge
	for _, e := range g.Edges {
		if e.Source == id {
			out = append(out, e)
		}
	}
	return out
}

// EntryNodeID returns the single node without incoming edges.
// When zero or several nodes qualify, the first declared node is used.
// An empty graph yields "".
func (g *Graph) EntryNodeID() string {
	if g == nil || len(g.Nodes) == 0 {
		return ""
	}

	targets := make(map[string]struct{}, len(g.Edges))
	for _, e := range g.Edges {
		targets[e.Target] = struct{}{}
	}

	entry := ""
	candidates := 0
	for _, n := range g.Nodes {
		if _, ok := targets[n.ID]; ok {
			continue
		}
		candidates++
		if entry == "" {
			entry = n.ID
		}
	}

	if candidates != 1 {
		return g.Nodes[0].ID
	}
	return entry
}
