package api

// buildOpenAPIDoc describes the job API as an OpenAPI 3.1 document.
func buildOpenAPIDoc() map[string]any {
	jobRef := map[string]any{"$ref": "#/components/schemas/Job"}
	bearer := []any{map[string]any{"BearerAuth": []string{}}}
	jsonBody := func(schema map[string]any) map[string]any {
		return map[string]any{
			"required": true,
			"content":  map[string]any{"application/json": map[string]any{"schema": schema}},
		}
	}
	jobResponse := func(desc string) map[string]any {
		return map[string]any{
			"description": desc,
			"content":     map[string]any{"application/json": map[string]any{"schema": jobRef}},
		}
	}
	nullableString := map[string]any{"type": []string{"string", "null"}}
	nullableTime := map[string]any{"type": []string{"string", "null"}, "format": "date-time"}

	return map[string]any{
		"openapi": "3.1.0",
		"info": map[string]any{
			"title":   "Scribe Gateway",
			"version": "1.0",
		},
		"paths": map[string]any{
			"/jobs/create": map[string]any{
				"post": map[string]any{
					"operationId": "createReadmeJob",
					"summary":     "Submit a README generation job",
					"security":    bearer,
					"requestBody": jsonBody(map[string]any{
						"type":     "object",
						"required": []string{"project_name", "description"},
						"properties": map[string]any{
							"project_name": map[string]any{"type": "string"},
							"tech_stack":   map[string]any{"type": "string"},
							"languages":    map[string]any{"type": "string"},
							"description":  map[string]any{"type": "string"},
						},
					}),
					"responses": map[string]any{
						"202": jobResponse("Job accepted"),
						"400": map[string]any{"description": "Missing or invalid fields"},
					},
				},
			},
			"/jobs": map[string]any{
				"post": map[string]any{
					"operationId": "submitJob",
					"summary":     "Submit a generation job of any kind",
					"security":    bearer,
					"requestBody": jsonBody(map[string]any{
						"type":     "object",
						"required": []string{"kind", "inputs"},
						"properties": map[string]any{
							"kind":   map[string]any{"type": "string", "enum": []string{"readme", "commit_summary"}},
							"inputs": map[string]any{"type": "object", "additionalProperties": map[string]any{"type": "string"}},
						},
					}),
					"responses": map[string]any{
						"202": jobResponse("Job accepted"),
						"400": map[string]any{"description": "Unknown kind or missing inputs"},
					},
				},
			},
			"/jobs/{jobID}": map[string]any{
				"get": map[string]any{
					"operationId": "getJob",
					"summary":     "Fetch a job",
					"security":    bearer,
					"parameters": []any{map[string]any{
						"name": "jobID", "in": "path", "required": true,
						"schema": map[string]any{"type": "string"},
					}},
					"responses": map[string]any{
						"200": jobResponse("The job"),
						"404": map[string]any{"description": "Unknown job"},
					},
				},
			},
			"/events": map[string]any{
				"get": map[string]any{
					"operationId": "streamEvents",
					"summary":     "Job lifecycle events (text/event-stream)",
					"security":    bearer,
					"responses":   map[string]any{"200": map[string]any{"description": "Event stream"}},
				},
			},
			"/healthz": map[string]any{
				"get": map[string]any{
					"operationId": "healthz",
					"summary":     "Liveness and pending job count",
					"responses":   map[string]any{"200": map[string]any{"description": "OK"}},
				},
			},
		},
		"components": map[string]any{
			"securitySchemes": map[string]any{
				"BearerAuth": map[string]any{
					"type":   "http",
					"scheme": "bearer",
				},
			},
			"schemas": map[string]any{
				"Job": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"job_id":       map[string]any{"type": "string"},
						"kind":         map[string]any{"type": "string"},
						"status":       map[string]any{"type": "string", "enum": []string{"pending", "processing", "completed", "failed"}},
						"result":       nullableString,
						"error":        nullableString,
						"created_at":   map[string]any{"type": "string", "format": "date-time"},
						"started_at":   nullableTime,
						"completed_at": nullableTime,
					},
				},
			},
		},
	}
}
