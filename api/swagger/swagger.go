package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Playtrack API",
        "description": "Student progress, session and badge service for the learning minigame suite",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Students", "description": "Per-student profile used by the game client"},
        {"name": "Sessions", "description": "End-of-game reports and badge awards"},
        {"name": "Admin", "description": "Roster management"},
        {"name": "Leaderboard", "description": "Rankings and game catalogue"}
    ],
    "paths": {
        "/students/{id}": {
            "get": {
                "tags": ["Students"],
                "summary": "Get a student, creating a default profile on first lookup",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Student"}},
                    "400": {"description": "Invalid id", "schema": {"$ref": "#/definitions/ErrorEnvelope"}},
                    "503": {"description": "Store unavailable", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            },
            "put": {
                "tags": ["Students"],
                "summary": "Update a student's name or class",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateProfileRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Student"}},
                    "400": {"description": "No field or blank field", "schema": {"$ref": "#/definitions/ErrorEnvelope"}},
                    "404": {"description": "Unknown student", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Students"],
                "summary": "Delete a student and all of its progress",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Deleted", "schema": {"$ref": "#/definitions/DeleteStudentResult"}},
                    "404": {"description": "Unknown student", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/sessions": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Record a finished game session",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SessionReport"}}
                ],
                "responses": {
                    "200": {"description": "Applied", "schema": {"$ref": "#/definitions/SessionResult"}},
                    "400": {"description": "Malformed report", "schema": {"$ref": "#/definitions/ErrorEnvelope"}},
                    "404": {"description": "Unknown student", "schema": {"$ref": "#/definitions/ErrorEnvelope"}},
                    "503": {"description": "Store unavailable", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/admin/students": {
            "get": {
                "tags": ["Admin"],
                "summary": "List every student ordered by name",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/Student"}}}
                }
            },
            "post": {
                "tags": ["Admin"],
                "summary": "Register a student",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateStudentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Student"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ErrorEnvelope"}},
                    "409": {"description": "Duplicate id", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/admin/students/export": {
            "get": {
                "tags": ["Admin"],
                "summary": "Download the roster",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"], "default": "csv"}
                ],
                "responses": {
                    "200": {"description": "Roster file", "schema": {"type": "file"}},
                    "400": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/leaderboard": {
            "get": {
                "tags": ["Leaderboard"],
                "summary": "Top students by high score",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/Student"}}}
                }
            }
        },
        "/games": {
            "get": {
                "tags": ["Leaderboard"],
                "summary": "List the game catalogue",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/Game"}}}
                }
            }
        }
    },
    "definitions": {
        "Badge": {
            "type": "object",
            "properties": {
                "type": {"type": "string"},
                "game": {"type": "integer"},
                "date": {"type": "string", "example": "2024-05-01"},
                "score": {"type": "integer"}
            }
        },
        "Student": {
            "type": "object",
            "properties": {
                "studentId": {"type": "string"},
                "name": {"type": "string"},
                "class": {"type": "string"},
                "sessions": {"type": "integer"},
                "badges": {"type": "array", "items": {"$ref": "#/definitions/Badge"}},
                "highScore": {"type": "integer"},
                "overallScore": {"type": "integer"},
                "timeSpent": {"type": "object", "additionalProperties": {"type": "integer"}},
                "createdAt": {"type": "string", "format": "date-time"},
                "updatedAt": {"type": "string", "format": "date-time"}
            }
        },
        "Game": {
            "type": "object",
            "properties": {
                "gameNum": {"type": "integer"},
                "title": {"type": "string"}
            }
        },
        "CreateStudentRequest": {
            "type": "object",
            "required": ["studentId", "name", "class"],
            "properties": {
                "studentId": {"type": "string"},
                "name": {"type": "string"},
                "class": {"type": "string"}
            }
        },
        "UpdateProfileRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "class": {"type": "string"}
            }
        },
        "SessionReport": {
            "type": "object",
            "required": ["studentId", "gameNum", "score"],
            "properties": {
                "studentId": {"type": "string"},
                "gameNum": {"type": "integer", "minimum": 1},
                "score": {"type": "integer", "minimum": 0},
                "misses": {"type": "integer", "minimum": 0},
                "timeSpent": {"type": "integer", "minimum": 0, "description": "milliseconds"}
            }
        },
        "SessionResult": {
            "type": "object",
            "properties": {
                "student": {"$ref": "#/definitions/Student"},
                "newBadge": {"$ref": "#/definitions/Badge"}
            }
        },
        "DeleteStudentResult": {
            "type": "object",
            "properties": {
                "deleted": {"type": "boolean"},
                "studentId": {"type": "string"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ErrorEnvelope": {
            "type": "object",
            "properties": {
                "error": {"$ref": "#/definitions/APIError"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
