package resolver

import "fmt"

// ValidationError rejects a selection document before execution touches the
// store: unknown fields, excessive nesting, or excessive cost.
type ValidationError struct {
	Reason  string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

type fieldKind int

const (
	scalarField fieldKind = iota
	objectField
	listField
)

// fieldSpec describes one resolvable field: its shape and, for object and
// list fields, the entity the nested selection applies to.
type fieldSpec struct {
	kind   fieldKind
	entity string
}

const (
	entityQuery = "Query"
	entityUser  = "User"
	entityPhoto = "Photo"
)

// listCostFactor weighs list fields: a list is priced as ten items.
const listCostFactor = 10

var entityFields = map[string]map[string]fieldSpec{
	entityQuery: {
		"totalUsers":  {kind: scalarField},
		"totalPhotos": {kind: scalarField},
		"allUsers":    {kind: listField, entity: entityUser},
		"allPhotos":   {kind: listField, entity: entityPhoto},
		"me":          {kind: objectField, entity: entityUser},
	},
	entityUser: {
		"githubLogin":  {kind: scalarField},
		"name":         {kind: scalarField},
		"avatar":       {kind: scalarField},
		"postedPhotos": {kind: listField, entity: entityPhoto},
		"inPhotos":     {kind: listField, entity: entityPhoto},
	},
	entityPhoto: {
		"id":          {kind: scalarField},
		"url":         {kind: scalarField},
		"name":        {kind: scalarField},
		"description": {kind: scalarField},
		"category":    {kind: scalarField},
		"postedBy":    {kind: objectField, entity: entityUser},
		"taggedUsers": {kind: listField, entity: entityUser},
	},
}

// validate checks a document against the field tables and the depth and cost
// ceilings. It returns the computed cost so callers can record it.
func validate(doc *Document, maxDepth, maxCost int) (int, error) {
	if depth := selectionDepth(Selection{Select: doc.Select}, entityQuery); depth > maxDepth {
		return 0, &ValidationError{Reason: "depth", Message: fmt.Sprintf("selection depth %d exceeds limit %d", depth, maxDepth)}
	}

	cost, err := selectionCost(Selection{Select: doc.Select}, entityQuery)
	if err != nil {
		return 0, err
	}
	if cost > maxCost {
		return cost, &ValidationError{Reason: "cost", Message: fmt.Sprintf("selection cost %d exceeds limit %d", cost, maxCost)}
	}
	return cost, nil
}

// selectionDepth returns the nesting depth of a selection. A selected field
// counts one level; its nested selection counts below it. Unknown fields are
// caught by selectionCost, so depth ignores them.
func selectionDepth(sel Selection, entity string) int {
	max := 0
	for name, child := range sel.Select {
		depth := 1
		if spec, ok := entityFields[entity][name]; ok && spec.entity != "" {
			depth += selectionDepth(child, spec.entity)
		}
		if depth > max {
			max = depth
		}
	}
	return max
}

// selectionCost prices a selection: a scalar costs 1, an object costs 1 plus
// its children, a list costs listCostFactor times an object. Fields outside
// the entity's table reject the whole document.
func selectionCost(sel Selection, entity string) (int, error) {
	total := 0
	for name, child := range sel.Select {
		spec, ok := entityFields[entity][name]
		if !ok {
			return 0, &ValidationError{Reason: "unknown_field", Message: fmt.Sprintf("unknown field %q on %s", name, entity)}
		}

		switch spec.kind {
		case scalarField:
			if len(child.Select) != 0 {
				return 0, &ValidationError{Reason: "shape", Message: fmt.Sprintf("field %q on %s does not accept a nested selection", name, entity)}
			}
			total++
		case objectField:
			children, err := selectionCost(child, spec.entity)
			if err != nil {
				return 0, err
			}
			total += 1 + children
		case listField:
			children, err := selectionCost(child, spec.entity)
			if err != nil {
				return 0, err
			}
			total += listCostFactor * (1 + children)
		}
	}
	return total, nil
}
