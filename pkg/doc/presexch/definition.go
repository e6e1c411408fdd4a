/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package presexch

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const (
	// All rule`s value.
	All Selection = "all"
	// Pick rule`s value.
	Pick Selection = "pick"

	// Required predicate`s value.
	Required Preference = "required"
	// Preferred predicate`s value.
	Preferred Preference = "preferred"
)

type (
	// Selection can be "all" or "pick".
	Selection string
	// Preference can be "required" or "preferred".
	Preference string
	// StrOrInt type that defines string or integer.
	StrOrInt interface{}
)

// PresentationDefinition presentation definitions (https://identity.foundation/presentation-exchange/).
type PresentationDefinition struct {
	// ID unique resource identifier.
	ID string `json:"id,omitempty"`
	// Name human-friendly name that describes what the Presentation Definition pertains to.
	Name string `json:"name,omitempty"`
	// Purpose describes the purpose for which the Presentation Definition's inputs are being requested.
	Purpose string `json:"purpose,omitempty"`
	// SubmissionRequirements must conform to the Submission Requirement Format.
	// If not present, all inputs listed in the InputDescriptors array are required for submission.
	SubmissionRequirements []*SubmissionRequirement `json:"submission_requirements,omitempty"`
	InputDescriptors       []*InputDescriptor       `json:"input_descriptors"`
}

// SubmissionRequirement describes input that must be submitted via a Presentation Submission
// to satisfy Verifier demands.
type SubmissionRequirement struct {
	Name       string                   `json:"name,omitempty"`
	Purpose    string                   `json:"purpose,omitempty"`
	Rule       Selection                `json:"rule,omitempty"`
	Count      int                      `json:"count,omitempty"`
	Min        int                      `json:"min,omitempty"`
	Max        int                      `json:"max,omitempty"`
	From       string                   `json:"from,omitempty"`
	FromNested []*SubmissionRequirement `json:"from_nested,omitempty"`
}

// InputDescriptor input descriptors.
type InputDescriptor struct {
	ID          string       `json:"id"`
	Group       []string     `json:"group,omitempty"`
	Name        string       `json:"name,omitempty"`
	Purpose     string       `json:"purpose,omitempty"`
	Constraints *Constraints `json:"constraints"`
}

// Constraints describes InputDescriptor`s Constraints field.
type Constraints struct {
	Fields []*Field `json:"fields,omitempty"`
}

// Field describes Constraints`s Fields field. A Predicate asks for the filter result instead of the
// value, so it needs a Filter. Claims are disclosed whole, so a field with a predicate matches exactly
// when its filter passes.
type Field struct {
	Path      []string    `json:"path"`
	ID        string      `json:"id,omitempty"`
	Purpose   string      `json:"purpose,omitempty"`
	Name      string      `json:"name,omitempty"`
	Filter    *Filter     `json:"filter,omitempty"`
	Optional  bool        `json:"optional,omitempty"`
	Predicate *Preference `json:"predicate,omitempty"`
}

// Filter is a JSON Schema the value selected by a field path must be valid against.
type Filter struct {
	Type             string     `json:"type,omitempty"`
	Format           string     `json:"format,omitempty"`
	Pattern          string     `json:"pattern,omitempty"`
	Minimum          StrOrInt   `json:"minimum,omitempty"`
	Maximum          StrOrInt   `json:"maximum,omitempty"`
	MinLength        int        `json:"minLength,omitempty"`
	MaxLength        int        `json:"maxLength,omitempty"`
	ExclusiveMinimum StrOrInt   `json:"exclusiveMinimum,omitempty"`
	ExclusiveMaximum StrOrInt   `json:"exclusiveMaximum,omitempty"`
	Const            StrOrInt   `json:"const,omitempty"`
	Enum             []StrOrInt `json:"enum,omitempty"`
	Contains         *Filter    `json:"contains,omitempty"`
	Not              *Filter    `json:"not,omitempty"`
}

// ParseDefinition unmarshals and validates a presentation definition.
func ParseDefinition(data []byte) (*PresentationDefinition, error) {
	pd := &PresentationDefinition{}

	err := json.Unmarshal(data, pd)
	if err != nil {
		return nil, fmt.Errorf("unmarshal presentation definition: %w", err)
	}

	err = pd.ValidateSchema()
	if err != nil {
		return nil, err
	}

	return pd, nil
}

// ValidateSchema validates presentation definition.
func (pd *PresentationDefinition) ValidateSchema() error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(definitionSchema),
		gojsonschema.NewGoLoader(struct {
			PD *PresentationDefinition `json:"presentation_definition"`
		}{PD: pd}),
	)
	if err != nil {
		return err
	}

	if result.Valid() {
		return pd.validateGroups()
	}

	resultErrors := result.Errors()

	errs := make([]string, len(resultErrors))
	for i := range resultErrors {
		errs[i] = resultErrors[i].String()
	}

	return errors.New(strings.Join(errs, ","))
}

// validateGroups checks every "from" of the submission requirements names a group of some input descriptor.
func (pd *PresentationDefinition) validateGroups() error {
	groups := groupedDescriptors(pd.InputDescriptors)

	var check func(reqs []*SubmissionRequirement) error

	check = func(reqs []*SubmissionRequirement) error {
		for _, req := range reqs {
			if req.From != "" {
				if _, ok := groups[req.From]; !ok {
					return fmt.Errorf("submission requirement %q selects unknown group %q", req.Name, req.From)
				}
			}

			err := check(req.FromNested)
			if err != nil {
				return err
			}
		}

		return nil
	}

	return check(pd.SubmissionRequirements)
}

func groupedDescriptors(descriptors []*InputDescriptor) map[string][]string {
	groups := map[string][]string{}

	for _, descriptor := range descriptors {
		for _, group := range descriptor.Group {
			groups[group] = append(groups[group], descriptor.ID)
		}
	}

	return groups
}
