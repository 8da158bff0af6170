package openapi

import "maps"

// NewComponents creates Components with the shared error schema and error responses.
func NewComponents() *Components {
	return &Components{
		Schemas: map[string]*Schema{
			"Error": {
				Type:     "object",
				Required: []string{"code", "error"},
				Properties: map[string]*Schema{
					"code":  {Type: "integer", Description: "Application error code", Example: 200},
					"error": {Type: "string", Description: "Error message"},
				},
			},
		},
		Responses: map[string]*Response{
			"BadRequest":         errorResponse("Invalid request"),
			"Unauthorized":       errorResponse("Missing or invalid bearer token"),
			"NotFound":           errorResponse("Resource not found"),
			"Conflict":           errorResponse("Concurrent modification; retry the request"),
			"PayloadTooLarge":    errorResponse("Request body exceeds the configured limit"),
			"TooManyRequests":    errorResponse("Rate limit exceeded"),
			"InternalError":      errorResponse("Engine or persistence failure"),
			"ServiceUnavailable": errorResponse("Dependent service not configured"),
		},
	}
}

// AddSchemas merges the given schemas into the component schemas.
func (c *Components) AddSchemas(schemas map[string]*Schema) {
	maps.Copy(c.Schemas, schemas)
}

// AddResponses merges the given responses into the component responses.
func (c *Components) AddResponses(responses map[string]*Response) {
	maps.Copy(c.Responses, responses)
}

func errorResponse(description string) *Response {
	return ResponseJSON(description, "Error")
}
