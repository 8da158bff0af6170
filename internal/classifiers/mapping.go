package classifiers

import (
	"encoding/json"

	"github.com/JaimeStill/verdict/pkg/query"
	"github.com/JaimeStill/verdict/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "classifiers", "c").
	Project("id", "ID").
	Project("name", "Name").
	Project("created_at", "CreatedAt").
	Project("version", "Version").
	Project("state", "State")

var summaryProjection = query.
	NewProjectionMap("public", "classifiers", "c").
	Project("id", "ID").
	Project("created_at", "CreatedAt").
	Project("name", "Name")

var defaultSort = []query.SortField{
	{Field: "CreatedAt", Descending: true},
	{Field: "ID"},
}

func scanClassifier(s repository.Scanner) (Classifier, error) {
	var c Classifier
	var state []byte

	if err := s.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.Version, &state); err != nil {
		return c, err
	}

	c.State = json.RawMessage(state)
	return c, nil
}

func scanSummary(s repository.Scanner) (Summary, error) {
	var sm Summary
	err := s.Scan(&sm.ID, &sm.CreatedAt, &sm.Name)
	return sm, err
}
