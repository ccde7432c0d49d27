package chalkdoc

import (
	"context"
	"strings"
	"time"
)

// TopicInput is what a user submits to build a topic.
type TopicInput struct {
	Topic        string   `json:"topic"`
	Instructions string   `json:"instructions"`
	Categories   []string `json:"categories"`
	Template
}

// Topic is a template, its metadata and the problems generated from it.
type Topic struct {
	ID           string            `json:"id,omitempty"`
	Topic        string            `json:"topic"`
	Instructions string            `json:"instructions"`
	Categories   []string          `json:"categories"`
	Equation     string            `json:"equation"`
	PositiveOnly bool              `json:"positive_only"`
	Unknown      string            `json:"unknown"`
	Variables    []VariableSpec    `json:"variables"`
	Problems     []ProblemInstance `json:"problems"`
	Count        int               `json:"count"`
	CreatedAt    time.Time         `json:"created_at"`
}

// Template returns the template the topic was generated from.
func (t *Topic) Template() Template {
	return Template{
		Equation:     t.Equation,
		PositiveOnly: t.PositiveOnly,
		Variables:    t.Variables,
		Unknown:      t.Unknown,
	}
}

// BuildTopic generates the problems for in and packages them with its
// metadata. It does not persist anything.
func BuildTopic(ctx context.Context, gen *Generator, in TopicInput) (*Topic, error) {
	if strings.TrimSpace(in.Topic) == "" {
		return nil, templatef("topic name is empty")
	}
	res, err := gen.Generate(ctx, in.Template)
	if err != nil {
		return nil, err
	}
	return &Topic{
		Topic:        strings.TrimSpace(in.Topic),
		Instructions: in.Instructions,
		Categories:   in.Categories,
		Equation:     in.Equation,
		PositiveOnly: in.PositiveOnly,
		Unknown:      in.UnknownSymbol(),
		Variables:    in.Variables,
		Problems:     res.Problems,
		Count:        res.Count,
		CreatedAt:    time.Now().UTC(),
	}, nil
}
