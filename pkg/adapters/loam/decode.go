package loam

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/surveyflow/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// toSurvey converts a decoded document into the domain model.
func toSurvey(id string, meta SurveyMetadata, content string) (*domain.Survey, error) {
	s := &domain.Survey{
		ID:          id,
		UserID:      meta.UserID,
		Title:       meta.Title,
		Description: meta.Description,
		Status:      domain.SurveyStatus(meta.Status),
		Prize:       meta.Prize,
	}
	s.EnableScoring = meta.EnableScoring

	if s.Description == "" {
		s.Description = strings.TrimSpace(content)
	}
	if s.Status == "" {
		s.Status = domain.SurveyPublished
	}

	if meta.TimeLimit != nil {
		limit, err := toInt(meta.TimeLimit)
		if err != nil {
			return nil, fmt.Errorf("timeLimit: %w", err)
		}
		s.TimeLimit = limit
	}
	s.CreatedAt = toTime(meta.CreatedAt)
	s.UpdatedAt = toTime(meta.UpdatedAt)

	s.Nodes = make([]domain.Node, 0, len(meta.Nodes))
	for i, nm := range meta.Nodes {
		n, err := decodeNode(nm)
		if err != nil {
			return nil, fmt.Errorf("nodes[%d]: %w", i, err)
		}
		s.Nodes = append(s.Nodes, n)
	}

	s.Edges = make([]domain.Edge, 0, len(meta.Edges))
	for i, em := range meta.Edges {
		e, err := decodeEdge(em)
		if err != nil {
			return nil, fmt.Errorf("edges[%d]: %w", i, err)
		}
		s.Edges = append(s.Edges, e)
	}

	return s, nil
}

func decodeNode(nm NodeMetadata) (domain.Node, error) {
	kind := domain.NodeKind(nm.Type)
	if kind == "" {
		if t, ok := nm.Data["type"].(string); ok {
			kind = domain.NodeKind(t)
		}
	}

	data, err := domain.NewNodeData(kind)
	if err != nil {
		return domain.Node{}, fmt.Errorf("node %s: %w", nm.ID, err)
	}
	if err := weakDecode(nm.Data, data); err != nil {
		return domain.Node{}, fmt.Errorf("node %s: invalid %s data: %w", nm.ID, kind, err)
	}

	n := domain.NewNode(nm.ID, kind, data)
	if len(nm.Position) > 0 {
		var pos domain.Position
		if err := weakDecode(nm.Position, &pos); err == nil {
			n.Position = &pos
		}
	}
	return n, nil
}

func decodeEdge(em EdgeMetadata) (domain.Edge, error) {
	e := domain.Edge{
		ID:           em.ID,
		Source:       em.Source,
		Target:       em.Target,
		SourceHandle: em.SourceHandle,
	}

	var data domain.EdgeData
	if len(em.Data) > 0 {
		raw := make(map[string]any, len(em.Data))
		for k, v := range em.Data {
			if k != "ratingValue" {
				raw[k] = v
			}
		}
		if err := weakDecode(raw, &data); err != nil {
			return e, fmt.Errorf("edge %s: %w", em.ID, err)
		}
		if v, ok := em.Data["ratingValue"]; ok && v != nil {
			n, err := toInt(v)
			if err != nil {
				return e, fmt.Errorf("edge %s: ratingValue: %w", em.ID, err)
			}
			data.RatingValue = &n
		}
	}

	if em.Option != "" {
		data.OptionID = em.Option
	}
	if em.Rating != nil {
		n, err := toInt(em.Rating)
		if err != nil {
			return e, fmt.Errorf("edge %s: rating: %w", em.ID, err)
		}
		data.RatingValue = &n
	}
	if em.Label != "" {
		data.Label = em.Label
	}

	if data != (domain.EdgeData{}) {
		e.Data = &data
	}
	return e, nil
}

// weakDecode tolerates the numeric representations produced by JSON (json.Number) and YAML.
func weakDecode(input, output any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
		Result:           output,
		DecodeHook:       jsonNumberHook,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

// jsonNumberHook turns json.Number into float64 before weak decoding, so "10" and 10.0 both land in int fields.
func jsonNumberHook(_ reflect.Type, _ reflect.Type, data any) (any, error) {
	if n, ok := data.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		return n.Float64()
	}
	return data, nil
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("expected integer, got %v", n)
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		return int(i), err
	case string:
		return strconv.Atoi(strings.TrimSpace(n))
	}
	return 0, fmt.Errorf("expected integer, got %T", v)
}

func toTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
