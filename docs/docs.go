// Package docs registers the OpenAPI description served under /swagger.
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
    "securityDefinitions": {
        "ApiKeyAuth": {"type": "apiKey", "name": "x-api-key", "in": "header"}
    },
    "security": [{"ApiKeyAuth": []}],
    "paths": {
        "/health": {"get": {"tags": ["health"], "summary": "Health check", "security": [], "responses": {"200": {"description": "OK"}}}},
        "/api/v1/messages": {"get": {"tags": ["messages"], "summary": "List message log entries", "responses": {"200": {"description": "OK"}}}},
        "/api/v1/messages/text": {"post": {"tags": ["messages"], "summary": "Send a text message", "responses": {"200": {"description": "OK"}, "502": {"description": "Provider error"}, "503": {"description": "WhatsApp not configured"}}}},
        "/api/v1/messages/template": {"post": {"tags": ["messages"], "summary": "Send a template message", "responses": {"200": {"description": "OK"}, "502": {"description": "Provider error"}}}},
        "/api/v1/messages/hello-world": {"post": {"tags": ["messages"], "summary": "Send the hello_world template", "responses": {"200": {"description": "OK"}}}},
        "/api/v1/messages/canned/{name}": {"post": {"tags": ["messages"], "summary": "Send a canned text", "responses": {"200": {"description": "OK"}, "404": {"description": "Unknown name"}}}},
        "/api/v1/messages/queue": {"post": {"tags": ["messages"], "summary": "Queue a text for the scheduler", "responses": {"201": {"description": "Created"}}}},
        "/api/v1/messages/sent": {"get": {"tags": ["messages"], "summary": "List sent messages", "responses": {"200": {"description": "OK"}}}},
        "/api/v1/messages/stats": {"get": {"tags": ["messages"], "summary": "Message counts by status", "responses": {"200": {"description": "OK"}}}},
        "/api/v1/messages/cached": {"get": {"tags": ["messages"], "summary": "Cached delivery receipts", "responses": {"200": {"description": "OK"}}}},
        "/api/v1/messages/{id}/cached": {"get": {"tags": ["messages"], "summary": "Cached receipt of one message", "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}], "responses": {"200": {"description": "OK"}, "404": {"description": "No cached receipt"}, "503": {"description": "Cache disabled"}}}},
        "/api/v1/messages/replay": {"post": {"tags": ["messages"], "summary": "Requeue all failed messages", "responses": {"200": {"description": "OK"}}}},
        "/api/v1/messages/{id}/replay": {"post": {"tags": ["messages"], "summary": "Requeue one failed message", "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}}},
        "/api/v1/otp/send": {"post": {"tags": ["otp"], "summary": "Send a verification code", "responses": {"200": {"description": "OK"}, "429": {"description": "Rate limited"}}}},
        "/api/v1/otp/verify": {"post": {"tags": ["otp"], "summary": "Verify a code", "responses": {"200": {"description": "OK"}, "400": {"description": "Wrong code"}, "409": {"description": "No session or expired"}}}},
        "/api/v1/otp/demo-verify": {"post": {"tags": ["otp"], "summary": "Verify without checking the code (demo only)", "responses": {"200": {"description": "OK"}, "403": {"description": "Disabled"}}}},
        "/api/v1/otp/{phone}": {
            "get": {"tags": ["otp"], "summary": "Get verification state", "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["otp"], "summary": "Reset verification state", "responses": {"204": {"description": "No Content"}}}
        },
        "/api/v1/locations": {"post": {"tags": ["locations"], "summary": "Open a location picker session", "responses": {"201": {"description": "Created"}}}},
        "/api/v1/locations/geocode": {"get": {"tags": ["locations"], "summary": "Resolve an address for coordinates", "responses": {"200": {"description": "OK"}}}},
        "/api/v1/locations/{id}": {
            "get": {"tags": ["locations"], "summary": "Get a picker session", "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}},
            "delete": {"tags": ["locations"], "summary": "Close a picker session", "responses": {"204": {"description": "No Content"}}}
        },
        "/api/v1/locations/{id}/select": {"post": {"tags": ["locations"], "summary": "Place the marker", "responses": {"200": {"description": "OK"}}}},
        "/api/v1/locations/{id}/drag": {"post": {"tags": ["locations"], "summary": "Move the marker", "responses": {"200": {"description": "OK"}, "409": {"description": "Nothing selected or drag disabled"}}}},
        "/api/v1/locations/{id}/details": {"put": {"tags": ["locations"], "summary": "Set title, landmark and delivery note", "responses": {"200": {"description": "OK"}}}},
        "/api/v1/whatsapp/status": {"get": {"tags": ["whatsapp"], "summary": "Diagnose the WhatsApp account", "responses": {"200": {"description": "OK"}}}},
        "/api/v1/whatsapp/templates": {"get": {"tags": ["whatsapp"], "summary": "List message templates", "responses": {"200": {"description": "OK"}}}},
        "/api/v1/whatsapp/templates/{name}": {"get": {"tags": ["whatsapp"], "summary": "Check a template", "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}}},
        "/api/v1/scheduler/start": {"post": {"tags": ["scheduler"], "summary": "Start the outbox scheduler", "responses": {"200": {"description": "OK"}}}},
        "/api/v1/scheduler/stop": {"post": {"tags": ["scheduler"], "summary": "Stop the outbox scheduler", "responses": {"200": {"description": "OK"}}}},
        "/api/v1/scheduler/status": {"get": {"tags": ["scheduler"], "summary": "Get scheduler status", "responses": {"200": {"description": "OK"}}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Amwaj Messaging API",
	Description:      "WhatsApp messaging, phone verification and location picking for Amwaj",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
