// Package docs registers the OpenAPI description served at /swagger.
// Regenerate with: swag init -g cmd/api/main.go -o internal/docs
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
        "/auth/register": {
            "post": {
                "tags": ["auth"],
                "summary": "Register a new user",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/handlers.RegisterRequest"}}],
                "responses": {
                    "201": {"description": "User registered and token generated", "schema": {"$ref": "#/definitions/handlers.AuthResponse"}},
                    "400": {"description": "Invalid input", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "409": {"description": "Email already registered", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Login user",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/handlers.LoginRequest"}}],
                "responses": {
                    "200": {"description": "User authenticated and token generated", "schema": {"$ref": "#/definitions/handlers.AuthResponse"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "423": {"description": "Too many failed attempts", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/profile": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["user"],
                "summary": "Get user profile",
                "responses": {"200": {"description": "User profile"}, "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}}
            }
        },
        "/trades/buy": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["trades"],
                "summary": "Buy",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/handlers.OrderRequest"}}],
                "responses": {
                    "200": {"description": "Balance and holdings after the fill"},
                    "400": {"description": "Invalid input, unknown symbol or insufficient funds", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Account not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "409": {"description": "Concurrent modification", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "503": {"description": "Upstream unavailable", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/trades/sell": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["trades"],
                "summary": "Sell",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/handlers.OrderRequest"}}],
                "responses": {
                    "200": {"description": "Balance and holdings after the fill"},
                    "400": {"description": "Invalid input, no holding or insufficient quantity", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "409": {"description": "Concurrent modification", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "503": {"description": "Upstream unavailable", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/trades": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["trades"],
                "summary": "List trades",
                "parameters": [
                    {"type": "string", "name": "symbol", "in": "query"},
                    {"type": "string", "name": "side", "in": "query"},
                    {"type": "string", "name": "from", "in": "query"},
                    {"type": "string", "name": "to", "in": "query"}
                ],
                "responses": {"200": {"description": "Trades newest first"}, "400": {"description": "Invalid filter", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}}
            }
        },
        "/account": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["account"],
                "summary": "Get account",
                "responses": {"200": {"description": "Account"}, "404": {"description": "Account not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}}
            }
        },
        "/portfolio": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["portfolio"],
                "summary": "Get portfolio",
                "parameters": [{"type": "string", "name": "source", "in": "query"}],
                "responses": {"200": {"description": "Portfolio"}, "503": {"description": "Upstream unavailable", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}}
            }
        },
        "/portfolio/verify": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["portfolio"],
                "summary": "Verify ledger",
                "responses": {"200": {"description": "Ledger is consistent"}, "500": {"description": "Holdings do not match the trade log", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}}
            }
        },
        "/watchlist": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["watchlist"],
                "summary": "Get watchlist",
                "responses": {"200": {"description": "Watchlist"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["watchlist"],
                "summary": "Add to watchlist",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/handlers.WatchlistRequest"}}],
                "responses": {"200": {"description": "Watchlist"}, "404": {"description": "Instrument not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}}
            }
        },
        "/watchlist/{symbol}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["watchlist"],
                "summary": "Remove from watchlist",
                "parameters": [{"type": "string", "name": "symbol", "in": "path", "required": true}],
                "responses": {"200": {"description": "Watchlist"}}
            }
        },
        "/stocks": {
            "get": {
                "tags": ["instruments"],
                "summary": "List instruments",
                "parameters": [{"type": "integer", "name": "page", "in": "query"}, {"type": "integer", "name": "page_size", "in": "query"}],
                "responses": {"200": {"description": "Paginated instruments"}}
            }
        },
        "/stocks/{symbol}": {
            "get": {
                "tags": ["instruments"],
                "summary": "Get instrument",
                "parameters": [{"type": "string", "name": "symbol", "in": "path", "required": true}],
                "responses": {"200": {"description": "Instrument"}, "404": {"description": "Instrument not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}}
            }
        },
        "/admin/instruments/seed": {
            "post": {
                "tags": ["admin"],
                "summary": "Seed instruments",
                "parameters": [{"type": "string", "name": "X-API-Key", "in": "header", "required": true}, {"type": "string", "name": "kind", "in": "query"}],
                "responses": {"200": {"description": "Number of instruments written"}, "401": {"description": "Invalid API key", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}}
            }
        },
        "/admin/instruments/{symbol}/price": {
            "put": {
                "tags": ["admin"],
                "summary": "Update instrument price",
                "parameters": [
                    {"type": "string", "name": "X-API-Key", "in": "header", "required": true},
                    {"type": "string", "name": "symbol", "in": "path", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/handlers.UpdateInstrumentPriceRequest"}}
                ],
                "responses": {"200": {"description": "Updated instrument"}, "404": {"description": "Instrument not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}}
            }
        }
    },
    "definitions": {
        "handlers.RegisterRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {"email": {"type": "string"}, "password": {"type": "string", "minLength": 8}, "name": {"type": "string"}}
        },
        "handlers.LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        },
        "handlers.UserResponse": {
            "type": "object",
            "properties": {"id": {"type": "string"}, "email": {"type": "string"}, "name": {"type": "string"}, "account_id": {"type": "string"}}
        },
        "handlers.AuthResponse": {
            "type": "object",
            "properties": {"token": {"type": "string"}, "user": {"$ref": "#/definitions/handlers.UserResponse"}}
        },
        "handlers.OrderRequest": {
            "type": "object",
            "required": ["symbol", "quantity", "price"],
            "properties": {"symbol": {"type": "string"}, "quantity": {"type": "integer"}, "price": {"type": "number"}}
        },
        "handlers.WatchlistRequest": {
            "type": "object",
            "required": ["symbol"],
            "properties": {"symbol": {"type": "string"}}
        },
        "handlers.UpdateInstrumentPriceRequest": {
            "type": "object",
            "required": ["price"],
            "properties": {"price": {"type": "number"}, "change_percent": {"type": "number"}}
        },
        "handlers.ErrorDetail": {
            "type": "object",
            "properties": {"code": {"type": "string"}, "message": {"type": "string"}}
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"$ref": "#/definitions/handlers.ErrorDetail"}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Papertrade API",
	Description:      "Simulated stock trading with a consistent portfolio ledger.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
