// Package docs registers the Swagger document served at /swagger.
// Regenerate with: swag init -g cmd/api/main.go
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {"tags": ["Health"], "summary": "Health check", "responses": {"200": {"description": "OK"}}}
        },
        "/auth/login": {
            "post": {
                "tags": ["Auth"], "summary": "Login",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/handlers.LoginRequest"}}],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/ledger/balance": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Ledger"], "summary": "Global balance",
                "description": "Purchase and sale totals with paid amounts clamped to each order total",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/ledger/customers/{name}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Ledger"], "summary": "Customer report",
                "parameters": [{"type": "string", "name": "name", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/ledger/suppliers/{name}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Ledger"], "summary": "Supplier report",
                "parameters": [{"type": "string", "name": "name", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/payments/customers/{name}": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Payments"], "summary": "Record customer payment",
                "description": "Applies a payment to unpaid and partial sales, oldest first",
                "parameters": [
                    {"type": "string", "name": "name", "in": "path", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/handlers.PaymentRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}
            }
        },
        "/payments/suppliers/{name}": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Payments"], "summary": "Record supplier payment",
                "description": "Applies a payment to unpaid and partial purchases, oldest first",
                "parameters": [
                    {"type": "string", "name": "name", "in": "path", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/handlers.PaymentRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}
            }
        },
        "/payments": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Payments"], "summary": "List receipts",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/products": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Products"], "summary": "List Products",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Products"], "summary": "Create Product",
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}
            }
        },
        "/reconciliation": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Jobs"], "summary": "Reconciliation scan",
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "handlers.LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        },
        "handlers.PaymentRequest": {
            "type": "object",
            "properties": {"amount": {"type": "number"}, "notes": {"type": "string"}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http"},
	Title:            "Fuel Ledger API",
	Description:      "Purchase, sale and payment ledger for a fuel trading business",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
