package domain

import (
	"encoding/json"
	"fmt"
)

// NodeKind is the closed set of node variants a survey graph may contain.
type NodeKind string

const (
	// KindPresentation is an intro screen, optionally capturing respondent details.
	KindPresentation NodeKind = "presentation"
	// KindSingleChoice asks for exactly one option.
	KindSingleChoice NodeKind = "singleChoice"
	// KindMultipleChoice asks for any number of options and continues on a default edge.
	KindMultipleChoice NodeKind = "multipleChoice"
	// KindRating asks for an integer in [MinValue, MaxValue].
	KindRating NodeKind = "rating"
	// KindEndScreen is a terminal screen.
	KindEndScreen NodeKind = "endScreen"
)

// Valid reports whether k is one of the known kinds.
func (k NodeKind) Valid() bool {
	switch k {
	case KindPresentation, KindSingleChoice, KindMultipleChoice, KindRating, KindEndScreen:
		return true
	}
	return false
}

// NodeData is the kind-specific payload of a Node.
// The set of implementations is closed: PresentationData, ChoiceData, RatingData and EndScreenData.
type NodeData interface {
	nodeData()
}

// PresentationData is the payload of a presentation node.
type PresentationData struct {
	Title         string `json:"title" mapstructure:"title"`
	Description   string `json:"description,omitempty" mapstructure:"description"`
	ButtonText    string `json:"buttonText,omitempty" mapstructure:"buttonText"`
	CollectName   bool   `json:"collectName,omitempty" mapstructure:"collectName"`
	CollectEmail  bool   `json:"collectEmail,omitempty" mapstructure:"collectEmail"`
	NameLabel     string `json:"nameLabel,omitempty" mapstructure:"nameLabel"`
	EmailLabel    string `json:"emailLabel,omitempty" mapstructure:"emailLabel"`
	NameRequired  bool   `json:"nameRequired,omitempty" mapstructure:"nameRequired"`
	EmailRequired bool   `json:"emailRequired,omitempty" mapstructure:"emailRequired"`
	CollectTerms  bool   `json:"collectTerms,omitempty" mapstructure:"collectTerms"`
	TermsText     string `json:"termsText,omitempty" mapstructure:"termsText"`
	TermsURL      string `json:"termsUrl,omitempty" mapstructure:"termsUrl"`
	TermsRequired bool   `json:"termsRequired,omitempty" mapstructure:"termsRequired"`
}

// Option is a selectable answer of a choice node.
type Option struct {
	ID    string `json:"id" mapstructure:"id"`
	Label string `json:"label" mapstructure:"label"`
	Score int    `json:"score,omitempty" mapstructure:"score"`
}

// ChoiceData is the payload shared by single and multiple choice nodes.
type ChoiceData struct {
	Title       string   `json:"title" mapstructure:"title"`
	Description string   `json:"description,omitempty" mapstructure:"description"`
	Options     []Option `json:"options" mapstructure:"options"`
}

// RatingData is the payload of a rating node.
type RatingData struct {
	Title       string `json:"title" mapstructure:"title"`
	Description string `json:"description,omitempty" mapstructure:"description"`
	MinValue    int    `json:"minValue" mapstructure:"minValue"`
	MaxValue    int    `json:"maxValue" mapstructure:"maxValue"`
	MinLabel    string `json:"minLabel,omitempty" mapstructure:"minLabel"`
	MaxLabel    string `json:"maxLabel,omitempty" mapstructure:"maxLabel"`
}

// EndScreenData is the payload of an end screen.
type EndScreenData struct {
	Title       string `json:"title" mapstructure:"title"`
	Description string `json:"description,omitempty" mapstructure:"description"`
	ShowScore   bool   `json:"showScore,omitempty" mapstructure:"showScore"`
}

func (*PresentationData) nodeData() {}
func (*ChoiceData) nodeData()       {}
func (*RatingData) nodeData()       {}
func (*EndScreenData) nodeData()    {}

// Position is the editor canvas position. The engine ignores it.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is one screen of a survey graph.
type Node struct {
	ID       string    `json:"id"`
	Kind     NodeKind  `json:"type"`
	Position *Position `json:"position,omitempty"`
	Data     NodeData  `json:"data"`
}

// NewNode builds a node, allocating an empty payload of the right variant when data is nil.
func NewNode(id string, kind NodeKind, data NodeData) Node {
	if data == nil {
		data, _ = newNodeData(kind)
	}
	return Node{ID: id, Kind: kind, Data: data}
}

// Title returns the display title of the node, whatever its kind.
func (n *Node) Title() string {
	switch d := n.Data.(type) {
	case *PresentationData:
		return d.Title
	case *ChoiceData:
		return d.Title
	case *RatingData:
		return d.Title
	case *EndScreenData:
		return d.Title
	}
	return ""
}

// Description returns the display description of the node, whatever its kind.
func (n *Node) Description() string {
	switch d := n.Data.(type) {
	case *PresentationData:
		return d.Description
	case *ChoiceData:
		return d.Description
	case *RatingData:
		return d.Description
	case *EndScreenData:
		return d.Description
	}
	return ""
}

// Options returns the options of a choice node, or nil for other kinds.
func (n *Node) Options() []Option {
	if c, ok := n.Data.(*ChoiceData); ok {
		return c.Options
	}
	return nil
}

// Option looks up an option of a choice node by id.
func (n *Node) Option(id string) (Option, bool) {
	for _, o := range n.Options() {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}

// Presentation returns the presentation payload, if n is a presentation node.
func (n *Node) Presentation() (*PresentationData, bool) {
	d, ok := n.Data.(*PresentationData)
	return d, ok
}

// Rating returns the rating payload, if n is a rating node.
func (n *Node) Rating() (*RatingData, bool) {
	d, ok := n.Data.(*RatingData)
	return d, ok
}

// EndScreen returns the end screen payload, if n is an end screen.
func (n *Node) EndScreen() (*EndScreenData, bool) {
	d, ok := n.Data.(*EndScreenData)
	return d, ok
}

type nodeJSON struct {
	ID       string          `json:"id"`
	Kind     NodeKind        `json:"type"`
	Position *Position       `json:"position,omitempty"`
	Data     json.RawMessage `json:"data"`
}

// UnmarshalJSON decodes the editor document shape. The variant is chosen by "type",
// falling back to "data.type" when the outer field is empty.
func (n *Node) UnmarshalJSON(b []byte) error {
	var raw nodeJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	kind := raw.Kind
	if kind == "" && len(raw.Data) > 0 {
		var probe struct {
			Type NodeKind `json:"type"`
		}
		if err := json.Unmarshal(raw.Data, &probe); err != nil {
			return fmt.Errorf("node %s: %w", raw.ID, err)
		}
		kind = probe.Type
	}

	data, err := newNodeData(kind)
	if err != nil {
		return fmt.Errorf("node %s: %w", raw.ID, err)
	}
	if len(raw.Data) > 0 && string(raw.Data) != "null" {
		if err := json.Unmarshal(raw.Data, data); err != nil {
			return fmt.Errorf("node %s: invalid %s data: %w", raw.ID, kind, err)
		}
	}

	*n = Node{ID: raw.ID, Kind: kind, Position: raw.Position, Data: data}
	return nil
}

// MarshalJSON writes the editor document shape, mirroring the kind into "data.type".
func (n Node) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(n.Data)
	if err != nil {
		return nil, err
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		fields = map[string]any{}
	}
	fields["type"] = n.Kind

	return json.Marshal(struct {
		ID       string         `json:"id"`
		Kind     NodeKind       `json:"type"`
		Position *Position      `json:"position,omitempty"`
		Data     map[string]any `json:"data"`
	}{n.ID, n.Kind, n.Position, fields})
}

// NewNodeData allocates the empty payload for kind.
func NewNodeData(kind NodeKind) (NodeData, error) {
	return newNodeData(kind)
}

func newNodeData(kind NodeKind) (NodeData, error) {
	switch kind {
	case KindPresentation:
		return &PresentationData{}, nil
	case KindSingleChoice, KindMultipleChoice:
		return &ChoiceData{}, nil
	case KindRating:
		return &RatingData{}, nil
	case KindEndScreen:
		return &EndScreenData{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownNodeKind, kind)
}
