package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Officer Registry API",
        "description": "Officer lifecycle, transfer ledger, headcount and classification service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Auth", "description": "Login and token inspection"},
        {"name": "Officers", "description": "Officer records, intake and merges"},
        {"name": "Transfers", "description": "Transfer ledger and removals"},
        {"name": "Classifications", "description": "Age classification, overrides and deltas"},
        {"name": "Headcount", "description": "Materialized active-officer totals"},
        {"name": "Audit", "description": "Append-only audit trail"},
        {"name": "Exports", "description": "CSV, PDF and XLSX reports"}
    ],
    "paths": {
        "/auth/login": {
            "post": {"tags": ["Auth"], "summary": "Exchange credentials for an access token",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "401": {"description": "Invalid credentials"}}}
        },
        "/auth/me": {
            "get": {"tags": ["Auth"], "summary": "Current token claims", "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}}
        },
        "/officers": {
            "get": {"tags": ["Officers"], "summary": "List officers in scope", "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}},
            "post": {"tags": ["Officers"], "summary": "Intake a new officer", "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Validation error"}, "403": {"description": "Out of scope"}}}
        },
        "/officers/lookup": {
            "get": {"tags": ["Officers"], "summary": "Find officers by registry or control number", "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}}
        },
        "/officers/merge": {
            "post": {"tags": ["Officers"], "summary": "Merge a duplicate into a surviving officer", "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Consistency violation"}}}
        },
        "/officers/ref/{refNo}": {
            "get": {"tags": ["Officers"], "summary": "Get officer by reference number", "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}}
        },
        "/officers/{id}": {
            "get": {"tags": ["Officers"], "summary": "Get officer", "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}, "422": {"description": "Decryption failure"}}}
        },
        "/officers/{id}/birthdate": {
            "patch": {"tags": ["Officers"], "summary": "Correct an officer birthdate", "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}}
        },
        "/officers/{id}/assignments": {
            "post": {"tags": ["Officers"], "summary": "Add a department assignment", "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created"}}}
        },
        "/officers/{id}/assignments/{assignmentId}": {
            "delete": {"tags": ["Officers"], "summary": "End a department assignment", "security": [{"BearerAuth": []}],
                "responses": {"204": {"description": "No Content"}}}
        },
        "/officers/{id}/classification": {
            "put": {"tags": ["Classifications"], "summary": "Set or clear the manual classification", "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["Classifications"], "summary": "Clear the manual classification", "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}}
        },
        "/officers/{id}/classification/recompute": {
            "post": {"tags": ["Classifications"], "summary": "Recompute one officer's classification", "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}}
        },
        "/transfers": {
            "get": {"tags": ["Transfers"], "summary": "List transfer ledger rows", "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/transfers/in": {
            "post": {"tags": ["Transfers"], "summary": "Record an incoming transfer", "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created"}}}
        },
        "/transfers/out": {
            "post": {"tags": ["Transfers"], "summary": "Record an outgoing transfer", "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created"}, "409": {"description": "Consistency violation"}}}
        },
        "/removals": {
            "get": {"tags": ["Transfers"], "summary": "List removals", "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Transfers"], "summary": "Remove an officer", "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created"}}}
        },
        "/views/{view}/clear": {
            "post": {"tags": ["Transfers"], "summary": "Clear a report view", "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created"}}}
        },
        "/classifications/recompute": {
            "post": {"tags": ["Classifications"], "summary": "Recompute a congregation", "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}}
        },
        "/classifications/baselines/reset": {
            "post": {"tags": ["Classifications"], "summary": "Record a new delta baseline", "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created"}}}
        },
        "/classifications/delta": {
            "get": {"tags": ["Classifications"], "summary": "Classification delta since baseline", "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}}
        },
        "/classifications/changes": {
            "get": {"tags": ["Classifications"], "summary": "Classification change history", "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}}
        },
        "/classifications/upcoming-adults": {
            "get": {"tags": ["Classifications"], "summary": "Officers about to reach the adult threshold", "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}}
        },
        "/headcount": {
            "get": {"tags": ["Headcount"], "summary": "Headcount of a congregation or district", "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}}
        },
        "/headcount/verify": {
            "get": {"tags": ["Headcount"], "summary": "Compare the counter with a live count", "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}}
        },
        "/audit": {
            "get": {"tags": ["Audit"], "summary": "List audit entries", "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}
        },
        "/exports/headcount": {
            "get": {"tags": ["Exports"], "summary": "Export headcount", "security": [{"BearerAuth": []}], "produces": ["text/csv", "application/pdf", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "responses": {"200": {"description": "File"}}}
        },
        "/exports/transfers": {
            "get": {"tags": ["Exports"], "summary": "Export transfers", "security": [{"BearerAuth": []}], "produces": ["text/csv", "application/pdf", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "responses": {"200": {"description": "File"}}}
        }
    },
    "definitions": {
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
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
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
