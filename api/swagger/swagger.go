package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Cognify API",
        "description": "Academic content and assessment platform",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Login, registration and tokens"},
        {"name": "Users", "description": "Account administration"},
        {"name": "Whitelist", "description": "Pre-approved registrants"},
        {"name": "Subjects", "description": "Subjects, topics and change queue"},
        {"name": "Content", "description": "Learning modules and approval workflow"},
        {"name": "Assessments", "description": "Assessments, review and grading"},
        {"name": "Revisions", "description": "Change requests on published items"},
        {"name": "Dashboard", "description": "Role landing summaries"},
        {"name": "Analytics", "description": "Readiness and roster analytics"}
    ],
    "paths": {
        "/web/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate an admin or faculty account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"},
                    "403": {"description": "Wrong application for this account"}
                }
            }
        },
        "/web/auth/register": {
            "post": {
                "tags": ["Auth"],
                "summary": "Register a whitelisted faculty account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Not whitelisted"},
                    "409": {"description": "Already registered"}
                }
            }
        },
        "/mobile/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate a student account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/web/admin/users": {
            "get": {
                "tags": ["Users"],
                "summary": "List user accounts",
                "parameters": [
                    {"name": "role", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Users"],
                "summary": "Create a user account",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/web/admin/whitelist/import": {
            "post": {
                "tags": ["Whitelist"],
                "summary": "Bulk import whitelist entries from CSV or JSON",
                "consumes": ["multipart/form-data", "application/json"],
                "responses": {
                    "200": {"description": "Per-row import result", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/web/faculty/content/{id}/submit": {
            "post": {
                "tags": ["Content"],
                "summary": "Submit a content module for review",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Now pending review"},
                    "409": {"description": "Not submittable from current status"}
                }
            }
        },
        "/web/admin/content/{id}/review": {
            "post": {
                "tags": ["Content"],
                "summary": "Approve, reject or request revision",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReviewRequest"}}
                ],
                "responses": {
                    "200": {"description": "Decision applied"},
                    "409": {"description": "Already reviewed"}
                }
            }
        },
        "/mobile/student/assessments/{id}/submit": {
            "post": {
                "tags": ["Assessments"],
                "summary": "Submit answers and receive a graded result",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitAssessmentRequest"}}
                ],
                "responses": {
                    "200": {"description": "Graded result", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/mobile/student/dashboard": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Student landing summary",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/web/admin/analytics/roster/export": {
            "get": {
                "tags": ["Analytics"],
                "summary": "Export the student roster as CSV or PDF",
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File download"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "RegisterRequest": {
            "type": "object",
            "required": ["email", "password", "first_name", "last_name", "institutional_id"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "first_name": {"type": "string"},
                "middle_name": {"type": "string"},
                "last_name": {"type": "string"},
                "institutional_id": {"type": "string"}
            }
        },
        "ReviewRequest": {
            "type": "object",
            "required": ["decision"],
            "properties": {
                "decision": {"type": "string", "enum": ["APPROVE", "REJECT", "REQUEST_REVISION"]},
                "note": {"type": "string"}
            }
        },
        "SubmitAssessmentRequest": {
            "type": "object",
            "required": ["answers"],
            "properties": {
                "answers": {"type": "object"},
                "time_taken_s": {"type": "integer"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "data": {"type": "object"},
                "pagination": {"$ref": "#/definitions/Pagination"},
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
