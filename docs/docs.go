// Package docs registers the OpenAPI description served under /swagger.
// Regenerate with `swag init -g cmd/ticket-service/main.go` after changing
// handler annotations.
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
        "/v1/auth/register": {
            "post": {
                "tags": ["auth"],
                "summary": "Register a new client",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.registerRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.registerResponse"}},
                    "409": {"description": "Conflict"},
                    "422": {"description": "Unprocessable Entity"}
                }
            }
        },
        "/v1/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Login",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.loginRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.authResponse"}},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/v1/identities": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["identities"],
                "summary": "List identities",
                "parameters": [{"type": "string", "in": "query", "name": "role"}],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/handler.identityResponse"}}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["identities"],
                "summary": "Create an identity of any role",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.createIdentityRequest"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.registerResponse"}}}
            }
        },
        "/v1/identities/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["identities"],
                "summary": "Get an identity",
                "parameters": [{"type": "string", "in": "path", "name": "id", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.identityResponse"}}, "404": {"description": "Not Found"}}
            }
        },
        "/v1/identities/{id}/status": {
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["identities"],
                "summary": "Activate or deactivate an identity",
                "parameters": [
                    {"type": "string", "in": "path", "name": "id", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.statusRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.identityResponse"}}}
            }
        },
        "/v1/identities/{id}/resync": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["identities"],
                "summary": "Publish a client to the Ticket service again",
                "parameters": [{"type": "string", "in": "path", "name": "id", "required": true}],
                "responses": {"202": {"description": "Accepted"}, "403": {"description": "Forbidden"}, "503": {"description": "Service Unavailable"}}
            }
        },
        "/v1/movies": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["movies"],
                "summary": "List movies",
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/handler.movieResponse"}}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["movies"],
                "summary": "Create a movie screening",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.movieRequest"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.movieResponse"}}}
            }
        },
        "/v1/movies/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["movies"],
                "summary": "Get a movie",
                "parameters": [{"type": "string", "in": "path", "name": "id", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.movieResponse"}}, "404": {"description": "Not Found"}}
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["movies"],
                "summary": "Replace a movie",
                "parameters": [
                    {"type": "string", "in": "path", "name": "id", "required": true},
                    {"type": "string", "in": "header", "name": "If-Match", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.movieRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "412": {"description": "Precondition Failed"}, "428": {"description": "Precondition Required"}}
            }
        },
        "/v1/tickets": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["tickets"],
                "summary": "Buy a ticket",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.createTicketRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.ticketResponse"}},
                    "403": {"description": "Forbidden"},
                    "404": {"description": "Not Found"},
                    "409": {"description": "Conflict"},
                    "422": {"description": "Unprocessable Entity"}
                }
            }
        },
        "/v1/tickets/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["tickets"],
                "summary": "Get a ticket with its signature",
                "parameters": [{"type": "string", "in": "path", "name": "id", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.ticketResponse"}}}
            }
        },
        "/v1/clients/{id}/tickets": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["tickets"],
                "summary": "List a client's tickets",
                "parameters": [{"type": "string", "in": "path", "name": "id", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/handler.ticketResponse"}}}}
            }
        },
        "/v1/signatures/verify": {
            "post": {
                "tags": ["signatures"],
                "summary": "Verify an entity signature",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.verifySignatureRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.verifySignatureResponse"}}}
            }
        }
    },
    "definitions": {
        "handler.registerRequest": {"type": "object", "properties": {"login": {"type": "string"}, "password": {"type": "string"}}},
        "handler.createIdentityRequest": {"type": "object", "properties": {"login": {"type": "string"}, "password": {"type": "string"}, "role": {"type": "string", "enum": ["CLIENT", "STAFF", "ADMIN"]}}},
        "handler.loginRequest": {"type": "object", "properties": {"login": {"type": "string"}, "password": {"type": "string"}}},
        "handler.statusRequest": {"type": "object", "properties": {"active": {"type": "boolean"}}},
        "handler.identityResponse": {"type": "object", "properties": {"id": {"type": "string"}, "login": {"type": "string"}, "role": {"type": "string"}, "active": {"type": "boolean"}, "created_at": {"type": "string"}, "updated_at": {"type": "string"}}},
        "handler.authResponse": {"type": "object", "properties": {"token": {"type": "string"}, "user": {"$ref": "#/definitions/handler.identityResponse"}}},
        "handler.registerResponse": {"type": "object", "properties": {"user": {"$ref": "#/definitions/handler.identityResponse"}, "replication": {"type": "string", "enum": ["published", "pending"]}}},
        "handler.movieRequest": {"type": "object", "properties": {"title": {"type": "string"}, "base_price": {"type": "string"}, "screening_room": {"type": "integer"}, "available_seats": {"type": "integer"}, "screening_time": {"type": "string"}}},
        "handler.movieResponse": {"type": "object", "properties": {"id": {"type": "string"}, "title": {"type": "string"}, "base_price": {"type": "string"}, "screening_room": {"type": "integer"}, "available_seats": {"type": "integer"}, "screening_time": {"type": "string"}}},
        "handler.createTicketRequest": {"type": "object", "properties": {"client_id": {"type": "string"}, "movie_id": {"type": "string"}, "ticket_type": {"type": "string", "enum": ["normal", "reduced"]}}},
        "handler.ticketResponse": {"type": "object", "properties": {"id": {"type": "string"}, "movie_time": {"type": "string"}, "final_price": {"type": "string"}, "client_id": {"type": "string"}, "movie_id": {"type": "string"}, "signature": {"type": "string"}}},
        "handler.verifySignatureRequest": {"type": "object", "properties": {"kind": {"type": "string", "enum": ["user", "movie", "ticket"]}, "signature": {"type": "string"}, "entity": {"type": "object"}}},
        "handler.verifySignatureResponse": {"type": "object", "properties": {"valid": {"type": "boolean"}, "reason": {"type": "string"}}}
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Cinema API",
	Description:      "User and Ticket services: identities, movies, tickets and entity signatures.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
