package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Exam Seating API",
        "description": "Exam hall seat allocation service",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Admin authentication"},
        {"name": "Seating", "description": "Seating plan generation and lookup"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate the admin account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/seating/generate": {
            "post": {
                "tags": ["Seating"],
                "summary": "Generate seating arrangement from uploaded rosters",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "exam_date", "in": "formData", "required": true, "type": "string"},
                    {"name": "exam_type", "in": "formData", "required": true, "type": "string"},
                    {"name": "students", "in": "formData", "required": true, "type": "file"},
                    {"name": "rooms", "in": "formData", "required": true, "type": "file"}
                ],
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid parameters or workbook"}
                }
            }
        },
        "/seating/current": {
            "get": {
                "tags": ["Seating"],
                "summary": "Get the most recently generated seating plan",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/seating/view": {
            "get": {
                "tags": ["Seating"],
                "summary": "Get the seating plan of a specific exam day",
                "parameters": [
                    {"name": "date", "in": "query", "required": true, "type": "string"},
                    {"name": "type", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/seating/student/{regno}": {
            "get": {
                "tags": ["Seating"],
                "summary": "Look up the seats of one register number",
                "parameters": [
                    {"name": "regno", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No seat found"}
                }
            }
        },
        "/seating/export": {
            "get": {
                "tags": ["Seating"],
                "summary": "Download the seating plan as csv, pdf or xlsx",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "format", "in": "query", "required": true, "type": "string"},
                    {"name": "date", "in": "query", "type": "string"},
                    {"name": "type", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File download"},
                    "404": {"description": "No plan to export"}
                }
            }
        },
        "/seating/clear": {
            "delete": {
                "tags": ["Seating"],
                "summary": "Delete the seating plan of one exam day",
                "parameters": [
                    {"name": "date", "in": "query", "required": true, "type": "string"},
                    {"name": "type", "in": "query", "required": true, "type": "string"}
                ],
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "SeatView": {
            "type": "object",
            "properties": {
                "row": {"type": "integer"},
                "col": {"type": "integer"},
                "course": {"type": "string"},
                "student": {"type": "string"},
                "session": {"type": "string"},
                "time": {"type": "string"}
            }
        },
        "RoomPlan": {
            "type": "object",
            "properties": {
                "roomNumber": {"type": "string"},
                "totalSeats": {"type": "integer"},
                "rows": {"type": "integer"},
                "columns": {"type": "integer"},
                "seats": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/SeatView"}
                },
                "session": {"type": "string"},
                "displaySession": {"type": "string"},
                "originalRoom": {"type": "string"}
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
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
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
