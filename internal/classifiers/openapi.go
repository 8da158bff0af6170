package classifiers

import "github.com/JaimeStill/verdict/pkg/openapi"

var idParam = openapi.PathParam("id", "Classifier UUID")

var schemas = map[string]*openapi.Schema{
	"Classifier": {
		Type:     "object",
		Required: []string{"_id", "name", "createdAt", "version", "classifier"},
		Properties: map[string]*openapi.Schema{
			"_id":        {Type: "string", Format: "uuid"},
			"name":       {Type: "string"},
			"createdAt":  {Type: "string", Format: "date-time"},
			"version":    {Type: "integer", Description: "Optimistic concurrency token"},
			"classifier": {Type: "object", Description: "Opaque engine snapshot"},
		},
	},
	"ClassifierSummary": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"_id":       {Type: "string", Format: "uuid"},
			"createdAt": {Type: "string", Format: "date-time"},
			"name":      {Type: "string"},
		},
	},
	"CreateCommand": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"name": {Type: "string", Default: ""},
		},
	},
	"RenameCommand": {
		Type:     "object",
		Required: []string{"name"},
		Properties: map[string]*openapi.Schema{
			"name": {Type: "string", MaxLength: intPtr(256)},
		},
	},
	"LearnItem": {
		Type:     "object",
		Required: []string{"text", "category"},
		Properties: map[string]*openapi.Schema{
			"text":     {Type: "string"},
			"category": {Type: "string", MinLength: intPtr(1)},
		},
	},
	"CategorizeItem": {
		Type:     "object",
		Required: []string{"text"},
		Properties: map[string]*openapi.Schema{
			"text": {Type: "string"},
		},
	},
	"Categorization": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"text":        {Type: "string"},
			"category":    {Type: "string"},
			"probability": {Type: "number"},
			"categories":  openapi.MapOf(&openapi.Schema{Type: "number"}),
		},
	},
	"Archive": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"key":          {Type: "string"},
			"classifierId": {Type: "string", Format: "uuid"},
			"createdAt":    {Type: "string", Format: "date-time"},
			"size":         {Type: "integer"},
		},
	},
	"RestoreCommand": {
		Type:     "object",
		Required: []string{"key"},
		Properties: map[string]*openapi.Schema{
			"key": {Type: "string"},
		},
	},
}

var docs = struct {
	List           *openapi.Operation
	Create         *openapi.Operation
	Find           *openapi.Operation
	Rename         *openapi.Operation
	Delete         *openapi.Operation
	Learn          *openapi.Operation
	Categorize     *openapi.Operation
	Archive        *openapi.Operation
	Archives       *openapi.Operation
	RestoreArchive *openapi.Operation
}{
	List: &openapi.Operation{
		Summary: "List classifiers",
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseSchema("Classifier summaries, newest first", openapi.ArrayOf("ClassifierSummary")),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Create: &openapi.Operation{
		Summary:     "Create an untrained classifier",
		RequestBody: openapi.RequestBodyJSON("CreateCommand", false),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Created classifier", "Classifier"),
			500: openapi.ResponseRef("InternalError"),
		},
	},
	Find: &openapi.Operation{
		Summary:    "Get a classifier",
		Parameters: []*openapi.Parameter{idParam},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Classifier record", "Classifier"),
			404: openapi.ResponseRef("NotFound"),
			500: openapi.ResponseRef("InternalError"),
		},
	},
	Rename: &openapi.Operation{
		Summary:     "Rename a classifier",
		Parameters:  []*openapi.Parameter{idParam},
		RequestBody: openapi.RequestBodyJSON("RenameCommand", true),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Renamed classifier", "Classifier"),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
			409: openapi.ResponseRef("Conflict"),
			500: openapi.ResponseRef("InternalError"),
		},
	},
	Delete: &openapi.Operation{
		Summary:    "Delete a classifier",
		Parameters: []*openapi.Parameter{idParam},
		Responses: map[int]*openapi.Response{
			204: {Description: "Deleted"},
			500: openapi.ResponseRef("InternalError"),
		},
	},
	Learn: &openapi.Operation{
		Summary:     "Train a classifier",
		Description: "Validates every item before training; the batch is applied and persisted as a unit.",
		Parameters:  []*openapi.Parameter{idParam},
		RequestBody: openapi.RequestBodySchema(openapi.Batch("LearnItem"), true),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseSchema("Document count per category", openapi.MapOf(&openapi.Schema{Type: "integer"})),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
			409: openapi.ResponseRef("Conflict"),
			413: openapi.ResponseRef("PayloadTooLarge"),
			500: openapi.ResponseRef("InternalError"),
		},
	},
	Categorize: &openapi.Operation{
		Summary:     "Categorize text",
		Parameters:  []*openapi.Parameter{idParam},
		RequestBody: openapi.RequestBodySchema(openapi.Batch("CategorizeItem"), true),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseSchema("Results in input order", openapi.ArrayOf("Categorization")),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
			413: openapi.ResponseRef("PayloadTooLarge"),
			500: openapi.ResponseRef("InternalError"),
		},
	},
	Archive: &openapi.Operation{
		Summary:    "Archive a classifier snapshot",
		Parameters: []*openapi.Parameter{idParam},
		Responses: map[int]*openapi.Response{
			201: openapi.ResponseJSON("Stored archive", "Archive"),
			404: openapi.ResponseRef("NotFound"),
			500: openapi.ResponseRef("InternalError"),
			503: openapi.ResponseRef("ServiceUnavailable"),
		},
	},
	Archives: &openapi.Operation{
		Summary:    "List archived snapshots",
		Parameters: []*openapi.Parameter{idParam},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseSchema("Archives, newest first", openapi.ArrayOf("Archive")),
			500: openapi.ResponseRef("InternalError"),
			503: openapi.ResponseRef("ServiceUnavailable"),
		},
	},
	RestoreArchive: &openapi.Operation{
		Summary:     "Restore an archived snapshot",
		Parameters:  []*openapi.Parameter{idParam},
		RequestBody: openapi.RequestBodyJSON("RestoreCommand", true),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Restored classifier", "Classifier"),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
			409: openapi.ResponseRef("Conflict"),
			500: openapi.ResponseRef("InternalError"),
			503: openapi.ResponseRef("ServiceUnavailable"),
		},
	},
}

func intPtr(n int) *int { return &n }
