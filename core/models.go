package core

import (
	"fmt"
	"strings"
)

type ModelCategory string

const (
	CategoryLanguage ModelCategory = "language"
	CategoryAudio    ModelCategory = "audio"
	CategoryVision   ModelCategory = "vision"
)

// ModelDescriptor is an entry of the model catalog
type ModelDescriptor struct {
	ID          string        `yaml:"id"`
	Category    ModelCategory `yaml:"category"`
	Description string        `yaml:"description"`
}

func DefaultModels() []ModelDescriptor {
	return []ModelDescriptor{
		{ID: "qwen-max-latest", Category: CategoryLanguage, Description: "The most capable one. Complex tasks and reasoning."},
		{ID: "qwen-plus-2025-01-25", Category: CategoryLanguage, Description: "Balance between cost and quality."},
		{ID: "qwen2.5-coder-32b-instruct", Category: CategoryLanguage, Description: "Code generation and programming."},
		{ID: "qwen2.5-omni-7b", Category: CategoryAudio, Description: "Audio and text, voice interfaces."},
		{ID: "qwen2.5-vl-32b", Category: CategoryVision, Description: "Text and images, image analysis."},
	}
}

// Catalog is an immutable ordered set of models
type Catalog struct {
	models []ModelDescriptor
	index  map[string]int
}

func NewCatalog(models []ModelDescriptor) *Catalog {
	c := &Catalog{
		models: make([]ModelDescriptor, len(models)),
		index:  make(map[string]int, len(models)),
	}
	copy(c.models, models)
	for i, m := range c.models {
		c.index[m.ID] = i
	}
	return c
}

func (c *Catalog) Lookup(id string) (ModelDescriptor, bool) {
	i, ok := c.index[id]
	if !ok {
		return ModelDescriptor{}, false
	}
	return c.models[i], true
}

func (c *Catalog) All() []ModelDescriptor {
	out := make([]ModelDescriptor, len(c.models))
	copy(out, c.models)
	return out
}

func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.models))
	for _, m := range c.models {
		names = append(names, m.ID)
	}
	return names
}

// Describe renders the catalog one model per line
func (c *Catalog) Describe() string {
	var sb strings.Builder
	for i, m := range c.models {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("- %s — %s | %s", m.ID, m.Category, m.Description))
	}
	return sb.String()
}
