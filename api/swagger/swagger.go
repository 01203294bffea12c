package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Marketplace Back-Office API",
        "description": "Return lifecycle and commission/profit recomputation service",
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
        {"name": "Authentication", "description": "Staff login and token exchange"},
        {"name": "Returns", "description": "Return case lifecycle"},
        {"name": "Commission", "description": "Commission rule administration"},
        {"name": "Recompute", "description": "Windowed commission and profit recomputation"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Tokens issued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh access token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshTokenRequest"}}
                ],
                "responses": {
                    "200": {"description": "Tokens rotated", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid refresh token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current user",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Claims", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/returns": {
            "get": {
                "tags": ["Returns"],
                "summary": "List return cases",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "shop_id", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string", "description": "Comma separated statuses"},
                    {"name": "category", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Cases", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Returns"],
                "summary": "Open a return case",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateReturnRequest"}}
                ],
                "responses": {
                    "201": {"description": "Case created in reported state", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/returns/{id}": {
            "get": {
                "tags": ["Returns"],
                "summary": "Get a return case",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Case detail", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/returns/{id}/transition": {
            "post": {
                "tags": ["Returns"],
                "summary": "Transition a return case",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TransitionReturnRequest"}}
                ],
                "responses": {
                    "200": {"description": "Transition applied", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Concurrent update lost, re-fetch and retry", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Guard rejected the transition", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/returns/{id}/pick": {
            "post": {
                "tags": ["Returns"],
                "summary": "Pick up a return immediately",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PickReturnRequest"}}
                ],
                "responses": {
                    "200": {"description": "Case picked up", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Guard rejected the pick", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/returns/{id}/pickup": {
            "post": {
                "tags": ["Returns"],
                "summary": "Schedule a carrier pickup",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SchedulePickupRequest"}}
                ],
                "responses": {
                    "201": {"description": "Pickup scheduled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Guard rejected the schedule", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/returns/{id}/evidence": {
            "post": {
                "tags": ["Returns"],
                "summary": "Submit return evidence",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitEvidenceRequest"}}
                ],
                "responses": {
                    "201": {"description": "Evidence recorded", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Case already terminal", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/returns/{id}/resolve": {
            "post": {
                "tags": ["Returns"],
                "summary": "Resolve a return case",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ResolveReturnRequest"}}
                ],
                "responses": {
                    "200": {"description": "Case resolved", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Concurrent update lost, re-fetch and retry", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Guard rejected the resolution", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/commission/rules": {
            "get": {
                "tags": ["Commission"],
                "summary": "List commission rules",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Rule history", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Commission"],
                "summary": "Create a commission rule",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateCommissionRuleRequest"}}
                ],
                "responses": {
                    "201": {"description": "Rule appended", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid rule", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/recompute/commissions": {
            "post": {
                "tags": ["Recompute"],
                "summary": "Recompute commissions for a window",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RecomputeRequest"}}
                ],
                "responses": {
                    "200": {"description": "Run summary", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid window", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/recompute/profit": {
            "post": {
                "tags": ["Recompute"],
                "summary": "Recompute profit snapshots for a window",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RecomputeRequest"}}
                ],
                "responses": {
                    "200": {"description": "Run result", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid window", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/recompute/commissions/summary": {
            "get": {
                "tags": ["Recompute"],
                "summary": "Last commission recompute summary for a window",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "shop_id", "in": "query", "type": "string"},
                    {"name": "from", "in": "query", "type": "string", "required": true},
                    {"name": "to", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Cached summary", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No cached summary", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/recompute/earnings/export": {
            "get": {
                "tags": ["Recompute"],
                "summary": "Export commission earnings as CSV",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "shop_id", "in": "query", "type": "string"},
                    {"name": "from", "in": "query", "type": "string", "required": true},
                    {"name": "to", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "CSV file"}
                }
            }
        },
        "/recompute/profit/export": {
            "get": {
                "tags": ["Recompute"],
                "summary": "Export profit report as PDF",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "shop_id", "in": "query", "type": "string"},
                    {"name": "from", "in": "query", "type": "string", "required": true},
                    {"name": "to", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "PDF file"}
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
        "RefreshTokenRequest": {
            "type": "object",
            "required": ["refresh_token"],
            "properties": {
                "refresh_token": {"type": "string"}
            }
        },
        "CreateReturnRequest": {
            "type": "object",
            "required": ["shop_id"],
            "properties": {
                "shop_id": {"type": "string"},
                "category": {"type": "string"}
            }
        },
        "TransitionReturnRequest": {
            "type": "object",
            "required": ["target"],
            "properties": {
                "target": {"type": "string", "enum": ["pickup_scheduled", "picked_up", "received", "approved", "resolved"]}
            }
        },
        "EvidenceInput": {
            "type": "object",
            "required": ["type", "uri"],
            "properties": {
                "type": {"type": "string", "enum": ["photo", "signature", "video", "document"]},
                "uri": {"type": "string"},
                "content_hash": {"type": "string"},
                "geo": {"type": "string"}
            }
        },
        "PickReturnRequest": {
            "type": "object",
            "properties": {
                "evidence": {"type": "array", "items": {"$ref": "#/definitions/EvidenceInput"}}
            }
        },
        "SchedulePickupRequest": {
            "type": "object",
            "required": ["scheduled_at", "carrier", "assigned_to"],
            "properties": {
                "scheduled_at": {"type": "string", "format": "date-time"},
                "carrier": {"type": "string"},
                "assigned_to": {"type": "string"},
                "tracking": {"type": "string"},
                "notes": {"type": "string"}
            }
        },
        "SubmitEvidenceRequest": {
            "type": "object",
            "required": ["evidence"],
            "properties": {
                "evidence": {"type": "array", "items": {"$ref": "#/definitions/EvidenceInput"}}
            }
        },
        "ResolveReturnRequest": {
            "type": "object",
            "required": ["resolution"],
            "properties": {
                "resolution": {"type": "string"},
                "order_item_id": {"type": "string"},
                "amount": {"type": "string"},
                "commission_impact": {"type": "string", "enum": ["reverse", "none", "other"]},
                "notes": {"type": "string"}
            }
        },
        "CreateCommissionRuleRequest": {
            "type": "object",
            "required": ["scope", "type", "rate_decimal", "effective_from"],
            "properties": {
                "scope": {"type": "string", "enum": ["sku", "category", "shop", "global"]},
                "sku": {"type": "string"},
                "category": {"type": "string"},
                "shop_id": {"type": "string"},
                "type": {"type": "string", "enum": ["percent_profit", "percent_gross", "flat_per_item"]},
                "rate_decimal": {"type": "string"},
                "effective_from": {"type": "string", "format": "date-time"},
                "effective_to": {"type": "string", "format": "date-time"}
            }
        },
        "RecomputeRequest": {
            "type": "object",
            "required": ["from", "to"],
            "properties": {
                "shop_id": {"type": "string"},
                "from": {"type": "string", "format": "date-time"},
                "to": {"type": "string", "format": "date-time"}
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
