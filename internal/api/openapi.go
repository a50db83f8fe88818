package api

import (
	"encoding/json"
	"net/http"
)

// handleOpenAPISpec returns the OpenAPI 3.0 specification
func (s *Server) handleOpenAPISpec(w http.ResponseWriter, r *http.Request) {
	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "Echo Journal API",
			"description": "API for recording daily notes, surfacing echoes from past entries, and talking through the day with an assistant",
			"version":     "1.0.0",
			"contact": map[string]interface{}{
				"name": "Echo",
				"url":  "https://github.com/thunderderder/echo",
			},
			"license": map[string]interface{}{
				"name": "MIT",
				"url":  "https://opensource.org/licenses/MIT",
			},
		},
		"servers": []map[string]interface{}{
			{
				"url":         "http://localhost:8080",
				"description": "Local development server",
			},
		},
		"paths": map[string]interface{}{
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Health check",
					"description": "Check if the server is running",
					"operationId": "getHealth",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Server is healthy",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"status": map[string]interface{}{
												"type": "string",
											},
										},
									},
								},
							},
						},
					},
				},
			},
			"/api/v1/notes": map[string]interface{}{
				"post": map[string]interface{}{
					"summary":     "Record a note",
					"description": "Store a new journal note",
					"operationId": "createNote",
					"requestBody": map[string]interface{}{
						"required": true,
						"content": map[string]interface{}{
							"application/json": map[string]interface{}{
								"schema": map[string]interface{}{
									"$ref": "#/components/schemas/CreateNoteRequest",
								},
							},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Note recorded successfully",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"$ref": "#/components/schemas/CreateNoteResponse",
									},
								},
							},
						},
						"400": map[string]interface{}{
							"description": "Invalid request",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"$ref": "#/components/schemas/ErrorResponse",
									},
								},
							},
						},
					},
				},
				"get": map[string]interface{}{
					"summary":     "List notes",
					"description": "List all notes, or one day's notes when a date is given",
					"operationId": "listNotes",
					"parameters": []map[string]interface{}{
						{
							"name":        "date",
							"in":          "query",
							"description": "Calendar date (YYYY-MM-DD)",
							"schema": map[string]interface{}{
								"type":   "string",
								"format": "date",
							},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Notes retrieved successfully",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"$ref": "#/components/schemas/NotesResponse",
									},
								},
							},
						},
					},
				},
			},
			"/api/v1/notes/{id}": map[string]interface{}{
				"put": map[string]interface{}{
					"summary":     "Edit a note",
					"description": "Replace a note's content; its cached vector is recomputed on the next echo lookup",
					"operationId": "updateNote",
					"parameters": []map[string]interface{}{
						{
							"name":        "id",
							"in":          "path",
							"required":    true,
							"description": "Note ID",
							"schema": map[string]interface{}{
								"type": "string",
							},
						},
					},
					"requestBody": map[string]interface{}{
						"required": true,
						"content": map[string]interface{}{
							"application/json": map[string]interface{}{
								"schema": map[string]interface{}{
									"$ref": "#/components/schemas/UpdateNoteRequest",
								},
							},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Note updated successfully",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"success": map[string]interface{}{
												"type": "boolean",
											},
											"message": map[string]interface{}{
												"type": "string",
											},
										},
									},
								},
							},
						},
					},
				},
				"delete": map[string]interface{}{
					"summary":     "Delete a note",
					"description": "Remove a note and its cached vector",
					"operationId": "deleteNote",
					"parameters": []map[string]interface{}{
						{
							"name":        "id",
							"in":          "path",
							"required":    true,
							"description": "Note ID",
							"schema": map[string]interface{}{
								"type": "string",
							},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Note deleted successfully",
						},
					},
				},
			},
			"/api/v1/transcribe": map[string]interface{}{
				"post": map[string]interface{}{
					"summary":     "Transcribe a recording",
					"description": "Convert an uploaded audio recording to text",
					"operationId": "transcribe",
					"requestBody": map[string]interface{}{
						"required": true,
						"content": map[string]interface{}{
							"multipart/form-data": map[string]interface{}{
								"schema": map[string]interface{}{
									"type": "object",
									"properties": map[string]interface{}{
										"audio_file": map[string]interface{}{
											"type":   "string",
											"format": "binary",
										},
									},
								},
							},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Transcription result",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"text": map[string]interface{}{
												"type": "string",
											},
										},
									},
								},
							},
						},
					},
				},
			},
			"/api/v1/insight": map[string]interface{}{
				"post": map[string]interface{}{
					"summary":     "Get the day's question",
					"description": "Generate a guiding question from one day's notes",
					"operationId": "getInsight",
					"requestBody": map[string]interface{}{
						"content": map[string]interface{}{
							"application/json": map[string]interface{}{
								"schema": map[string]interface{}{
									"$ref": "#/components/schemas/DayRequest",
								},
							},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Guiding question for the day",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"$ref": "#/components/schemas/InsightResponse",
									},
								},
							},
						},
						"400": map[string]interface{}{
							"description": "No notes recorded for the day",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"$ref": "#/components/schemas/ErrorResponse",
									},
								},
							},
						},
					},
				},
			},
			"/api/v1/echoes": map[string]interface{}{
				"post": map[string]interface{}{
					"summary":     "Find echoes",
					"description": "Surface past notes that resonate with one day's notes",
					"operationId": "findEchoes",
					"requestBody": map[string]interface{}{
						"content": map[string]interface{}{
							"application/json": map[string]interface{}{
								"schema": map[string]interface{}{
									"$ref": "#/components/schemas/DayRequest",
								},
							},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Echo groups and an overall summary",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"$ref": "#/components/schemas/EchoesResponse",
									},
								},
							},
						},
					},
				},
			},
			"/api/v1/conversation": map[string]interface{}{
				"post": map[string]interface{}{
					"summary":     "Conversation turn",
					"description": "Run one conversation turn; the reply streams back as 'data: ...' events terminated by a [DONE] marker",
					"operationId": "conversationTurn",
					"requestBody": map[string]interface{}{
						"required": true,
						"content": map[string]interface{}{
							"application/json": map[string]interface{}{
								"schema": map[string]interface{}{
									"$ref": "#/components/schemas/ConversationRequest",
								},
							},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Streamed reply",
							"content": map[string]interface{}{
								"text/event-stream": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "string",
									},
								},
							},
						},
					},
				},
			},
			"/api/v1/status": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Get system status",
					"description": "Returns current system status and note count",
					"operationId": "getStatus",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "System status",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"$ref": "#/components/schemas/StatusResponse",
									},
								},
							},
						},
					},
				},
			},
		},
		"components": map[string]interface{}{
			"schemas": map[string]interface{}{
				"CreateNoteRequest": map[string]interface{}{
					"type":     "object",
					"required": []string{"content"},
					"properties": map[string]interface{}{
						"content": map[string]interface{}{
							"type":        "string",
							"description": "The note content to store",
						},
						"createdAt": map[string]interface{}{
							"type":        "string",
							"format":      "date-time",
							"description": "Creation time (ISO 8601); defaults to now",
						},
					},
				},
				"CreateNoteResponse": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"success": map[string]interface{}{
							"type": "boolean",
						},
						"note": map[string]interface{}{
							"$ref": "#/components/schemas/Note",
						},
					},
				},
				"UpdateNoteRequest": map[string]interface{}{
					"type":     "object",
					"required": []string{"content"},
					"properties": map[string]interface{}{
						"content": map[string]interface{}{
							"type": "string",
						},
					},
				},
				"DayRequest": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"date": map[string]interface{}{
							"type":        "string",
							"format":      "date",
							"description": "Calendar date (YYYY-MM-DD); defaults to today",
						},
					},
				},
				"ConversationRequest": map[string]interface{}{
					"type":     "object",
					"required": []string{"currentMessage"},
					"properties": map[string]interface{}{
						"date": map[string]interface{}{
							"type":   "string",
							"format": "date",
						},
						"initialQuestion": map[string]interface{}{
							"type":        "string",
							"description": "The day's guiding question that opened the conversation",
						},
						"thinking": map[string]interface{}{
							"type":        "string",
							"description": "Opaque assistant state returned by the insight endpoint",
						},
						"priorTurns": map[string]interface{}{
							"type": "array",
							"items": map[string]interface{}{
								"$ref": "#/components/schemas/ConversationTurn",
							},
						},
						"currentMessage": map[string]interface{}{
							"type": "string",
						},
					},
				},
				"ConversationTurn": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"role": map[string]interface{}{
							"type": "string",
							"enum": []string{"user", "assistant"},
						},
						"content": map[string]interface{}{
							"type": "string",
						},
					},
				},
				"NotesResponse": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"notes": map[string]interface{}{
							"type": "array",
							"items": map[string]interface{}{
								"$ref": "#/components/schemas/Note",
							},
						},
						"count": map[string]interface{}{
							"type": "integer",
						},
					},
				},
				"InsightResponse": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"question": map[string]interface{}{
							"type": "string",
						},
						"thinking": map[string]interface{}{
							"type":        "string",
							"description": "Opaque assistant state; forward verbatim on conversation turns",
						},
					},
				},
				"EchoesResponse": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"echoes": map[string]interface{}{
							"type": "array",
							"items": map[string]interface{}{
								"$ref": "#/components/schemas/EchoGroup",
							},
						},
						"summary": map[string]interface{}{
							"type": "string",
						},
					},
				},
				"EchoGroup": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"todayNote": map[string]interface{}{
							"$ref": "#/components/schemas/Note",
						},
						"matches": map[string]interface{}{
							"type": "array",
							"items": map[string]interface{}{
								"type": "object",
								"properties": map[string]interface{}{
									"historyNote": map[string]interface{}{
										"$ref": "#/components/schemas/Note",
									},
									"similarity": map[string]interface{}{
										"type":   "number",
										"format": "double",
									},
								},
							},
						},
					},
				},
				"StatusResponse": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"status": map[string]interface{}{
							"type": "string",
						},
						"note_count": map[string]interface{}{
							"type": "integer",
						},
						"database_ready": map[string]interface{}{
							"type": "boolean",
						},
					},
				},
				"Note": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"id": map[string]interface{}{
							"type": "string",
						},
						"content": map[string]interface{}{
							"type": "string",
						},
						"createdAt": map[string]interface{}{
							"type":   "string",
							"format": "date-time",
						},
					},
				},
				"ErrorResponse": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"error": map[string]interface{}{
							"type": "string",
						},
					},
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(spec)
}
