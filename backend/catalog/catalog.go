// Package catalog holds the assessments shipped with the application.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"

	"lingua/backend/models"
)

// OptionsPerQuestion is the number of choices every question must offer.
const OptionsPerQuestion = 4

var ErrNotFound = errors.New("assessment not found")

//go:embed assessments.yaml
var builtin []byte

type Catalog struct {
	byID map[string]*models.Assessment
}

// Default returns the catalog compiled into the binary.
// It panics if the embedded file is invalid, which is a build defect.
func Default() *Catalog {
	c, err := Parse(builtin)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded assessments: %v", err))
	}
	return c
}

func Parse(data []byte) (*Catalog, error) {
	var list []models.Assessment
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&list); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("parse catalog: multiple YAML documents are not supported")
		}
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	c := &Catalog{byID: make(map[string]*models.Assessment, len(list))}
	for i := range list {
		a := &list[i]
		if err := Validate(a); err != nil {
			return nil, err
		}
		if _, dup := c.byID[a.ID]; dup {
			return nil, fmt.Errorf("assessment %q: duplicate id", a.ID)
		}
		c.byID[a.ID] = a
	}
	return c, nil
}

// Validate checks the invariants every assessment must hold.
func Validate(a *models.Assessment) error {
	if a.ID == "" {
		return errors.New("assessment: missing id")
	}
	if a.LessonID == "" || a.ChapterID == "" {
		return fmt.Errorf("assessment %q: lesson_id and chapter_id are required", a.ID)
	}
	if len(a.Questions) == 0 {
		return fmt.Errorf("assessment %q: no questions", a.ID)
	}
	for i, q := range a.Questions {
		if q.Prompt == "" {
			return fmt.Errorf("assessment %q question %d: empty prompt", a.ID, i+1)
		}
		if len(q.Options) != OptionsPerQuestion {
			return fmt.Errorf("assessment %q question %d: want %d options, got %d",
				a.ID, i+1, OptionsPerQuestion, len(q.Options))
		}
		seen := make(map[string]bool, len(q.Options))
		for _, o := range q.Options {
			if o == "" {
				return fmt.Errorf("assessment %q question %d: empty option", a.ID, i+1)
			}
			if seen[o] {
				return fmt.Errorf("assessment %q question %d: duplicate option %q", a.ID, i+1, o)
			}
			seen[o] = true
		}
		if !seen[q.Correct] {
			return fmt.Errorf("assessment %q question %d: correct answer %q is not an option",
				a.ID, i+1, q.Correct)
		}
	}
	return nil
}

func (c *Catalog) Get(id string) (*models.Assessment, error) {
	a, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return a, nil
}

// List returns the assessments ordered by id.
func (c *Catalog) List() []*models.Assessment {
	out := make([]*models.Assessment, 0, len(c.byID))
	for _, a := range c.byID {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
