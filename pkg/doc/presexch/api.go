/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package presexch evaluates credentials against DIF Presentation Exchange definitions
// (https://identity.foundation/presentation-exchange/).
package presexch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/PaesslerAG/gval"
	"github.com/PaesslerAG/jsonpath"
	"github.com/samber/lo"
	"github.com/xeipuuv/gojsonschema"

	"github.com/TBD54566975/tbdex-go/pkg/doc/presexch/internal/requirementlogic"
	"github.com/TBD54566975/tbdex-go/pkg/doc/verifiable"
)

const vcClaim = "vc"

// ErrNotSatisfied is returned when the credentials do not satisfy a presentation definition.
var ErrNotSatisfied = errors.New("presentation definition is not satisfied")

// Match evaluates every input descriptor against the credentials and returns, per descriptor ID,
// the credentials satisfying it. Descriptors no credential satisfies are absent from the result.
func (pd *PresentationDefinition) Match(credentials []*verifiable.Credential) (map[string][]*verifiable.Credential, error) {
	builder := gval.Full(jsonpath.PlaceholderExtension())
	result := make(map[string][]*verifiable.Credential)

	for _, descriptor := range pd.InputDescriptors {
		e, err := newEvaluator(builder, descriptor)
		if err != nil {
			return nil, fmt.Errorf("input descriptor %s: %w", descriptor.ID, err)
		}

		for _, vc := range credentials {
			if e.accepts(vc.Payload()) {
				result[descriptor.ID] = append(result[descriptor.ID], vc)
			}
		}
	}

	return result, nil
}

// SelectCredentials returns the credentials that satisfy the definition, in input order.
// Without submission requirements every input descriptor needs a credential; otherwise the
// submission requirements decide which descriptors are needed.
func (pd *PresentationDefinition) SelectCredentials(credentials []*verifiable.Credential) ([]*verifiable.Credential, error) {
	matched, err := pd.Match(credentials)
	if err != nil {
		return nil, err
	}

	satisfied := requirementlogic.NewDescriptorIDSet(lo.Keys(matched)...)

	logic := pd.requirementLogic()
	if !logic.IsSatisfiedBy(satisfied) {
		missing := lo.Filter(logic.GetAllDescriptors().Sorted(), func(id string, _ int) bool {
			return !satisfied.Has(id)
		})

		return nil, fmt.Errorf("%w: no credential for input descriptors %s", ErrNotSatisfied, strings.Join(missing, ", "))
	}

	used := logic.GetAllDescriptors()

	selected := lo.Filter(credentials, func(vc *verifiable.Credential, _ int) bool {
		for id, vcs := range matched {
			if used.Has(id) && lo.Contains(vcs, vc) {
				return true
			}
		}

		return false
	})

	return selected, nil
}

func (pd *PresentationDefinition) requirementLogic() *requirementlogic.RequirementLogic {
	if len(pd.SubmissionRequirements) == 0 {
		ids := lo.Map(pd.InputDescriptors, func(d *InputDescriptor, _ int) string { return d.ID })

		return &requirementlogic.RequirementLogic{InputDescriptorIDs: ids, Count: len(ids)}
	}

	groups := groupedDescriptors(pd.InputDescriptors)

	return &requirementlogic.RequirementLogic{
		Nested: toRequirementLogic(pd.SubmissionRequirements, groups),
		Count:  len(pd.SubmissionRequirements),
	}
}

func toRequirementLogic(reqs []*SubmissionRequirement, groups map[string][]string) []*requirementlogic.RequirementLogic {
	out := make([]*requirementlogic.RequirementLogic, 0, len(reqs))

	for _, req := range reqs {
		logic := &requirementlogic.RequirementLogic{}

		var size int

		if len(req.FromNested) > 0 {
			logic.Nested = toRequirementLogic(req.FromNested, groups)
			size = len(logic.Nested)
		} else {
			logic.InputDescriptorIDs = groups[req.From]
			size = len(logic.InputDescriptorIDs)
		}

		switch req.Rule {
		case Pick:
			logic.Count, logic.Min, logic.Max = req.Count, req.Min, req.Max
		default:
			logic.Count = size
		}

		// an empty "all" group cannot be met
		if req.Rule != Pick && size == 0 {
			logic.Min = 1
		}

		out = append(out, logic)
	}

	return out
}

type fieldEvaluator struct {
	field  *Field
	paths  []gval.Evaluable
	filter *gojsonschema.Schema
}

type evaluator struct {
	fields []*fieldEvaluator
}

func newEvaluator(builder gval.Language, descriptor *InputDescriptor) (*evaluator, error) {
	e := &evaluator{}

	if descriptor.Constraints == nil {
		return e, nil
	}

	for _, field := range descriptor.Constraints.Fields {
		if field.Predicate != nil && field.Filter == nil {
			return nil, fmt.Errorf("field %v: predicate %s requires a filter", field.Path, *field.Predicate)
		}

		fe := &fieldEvaluator{field: field}

		for _, p := range field.Path {
			path, err := builder.NewEvaluable(p)
			if err != nil {
				return nil, fmt.Errorf("field path %s: %w", p, err)
			}

			fe.paths = append(fe.paths, path)
		}

		if field.Filter != nil {
			schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(field.Filter))
			if err != nil {
				return nil, fmt.Errorf("field filter: %w", err)
			}

			fe.filter = schema
		}

		e.fields = append(e.fields, fe)
	}

	return e, nil
}

// accepts reports whether every non optional field of the descriptor selects a value passing its filter.
// Paths are tried against the JWT claims set and then against its "vc" claim.
func (e *evaluator) accepts(payload map[string]interface{}) bool {
	docs := []interface{}{payload}

	if vc, ok := payload[vcClaim]; ok {
		docs = append(docs, vc)
	}

	for _, fe := range e.fields {
		if !fe.accepts(docs) && !fe.field.Optional {
			return false
		}
	}

	return true
}

func (fe *fieldEvaluator) accepts(docs []interface{}) bool {
	for _, doc := range docs {
		for i, path := range fe.paths {
			value, err := path(context.TODO(), doc)
			if err != nil || value == nil {
				continue
			}

			candidates := []interface{}{value}

			if values, ok := value.([]interface{}); ok && isMultiValuePath(fe.field.Path[i]) {
				candidates = values
			}

			for _, candidate := range candidates {
				if fe.valid(candidate) {
					return true
				}
			}
		}
	}

	return false
}

func (fe *fieldEvaluator) valid(value interface{}) bool {
	if fe.filter == nil {
		return true
	}

	result, err := fe.filter.Validate(gojsonschema.NewGoLoader(normalize(value)))
	if err != nil {
		return false
	}

	return result.Valid()
}

func isMultiValuePath(path string) bool {
	return strings.Contains(path, "*") || strings.Contains(path, "..") || strings.Contains(path, "?(")
}

// normalize turns values selected from decoded JSON back into plain JSON types.
func normalize(v interface{}) interface{} {
	bits, err := json.Marshal(v)
	if err != nil {
		return v
	}

	var out interface{}

	if json.Unmarshal(bits, &out) != nil {
		return v
	}

	return out
}
