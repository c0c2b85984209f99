// Package docs registers the swagger document for the Virtual TA API.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "license": {
            "name": "Apache 2.0",
            "url": "http://www.apache.org/licenses/LICENSE-2.0.html"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/": {
            "post": {
                "description": "Answers a course question from scraped course material and forum posts.\nLanguage-model failures are masked by a deterministic fallback answer.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Assistant"],
                "summary": "Ask a question",
                "parameters": [
                    {
                        "description": "Question",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/http.AskPayload"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.AnswerResult"}},
                    "400": {"description": "Missing question, malformed JSON or invalid image", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "413": {"description": "Request body too large", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "500": {"description": "Internal server error", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "description": "Liveness probe with no business logic",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.HealthResponse"}}
                }
            }
        },
        "/stats": {
            "get": {
                "description": "Aggregate counts over the interaction log",
                "produces": ["application/json"],
                "tags": ["Assistant"],
                "summary": "Usage statistics",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.InteractionStats"}},
                    "500": {"description": "Internal server error", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.AnswerResult": {
            "type": "object",
            "properties": {
                "answer": {"type": "string"},
                "links": {"type": "array", "items": {"$ref": "#/definitions/domain.Link"}}
            }
        },
        "domain.Link": {
            "type": "object",
            "properties": {
                "text": {"type": "string"},
                "url": {"type": "string"}
            }
        },
        "domain.InteractionStats": {
            "type": "object",
            "properties": {
                "average_response_time": {"type": "number"},
                "questions_with_images": {"type": "integer"},
                "total_questions": {"type": "integer"}
            }
        },
        "http.AskPayload": {
            "description": "A student question with an optional base64 image",
            "type": "object",
            "required": ["question"],
            "properties": {
                "image": {"type": "string", "example": "iVBORw0KGgo..."},
                "question": {"type": "string", "example": "Should I use gpt-4o-mini or gpt-3.5-turbo for GA5?"}
            }
        },
        "http.ErrorResponse": {
            "description": "API error response",
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "Question is required"}
            }
        },
        "http.HealthResponse": {
            "description": "Liveness probe response",
            "type": "object",
            "properties": {
                "message": {"type": "string", "example": "TDS Virtual TA API is running"},
                "status": {"type": "string", "example": "healthy"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api",
	Schemes:          []string{"http", "https"},
	Title:            "TDS Virtual TA API",
	Description:      "Answers Tools in Data Science course questions from scraped course material and Discourse posts.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
