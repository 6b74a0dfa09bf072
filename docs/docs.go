// Package docs holds the OpenAPI document served at /.well-known/openapi.json.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {"tags": ["Health"], "summary": "Liveness check", "produces": ["application/json"], "responses": {"200": {"description": "status: ok"}}}
        },
        "/health/ready": {
            "get": {"tags": ["Health"], "summary": "Readiness check", "produces": ["application/json"], "responses": {"200": {"description": "status: ok"}, "503": {"description": "unhealthy"}}}
        },
        "/version": {
            "get": {"tags": ["System"], "summary": "Get service version", "produces": ["application/json"], "responses": {"200": {"description": "Version information", "schema": {"$ref": "#/definitions/VersionResponse"}}}}
        },
        "/api/totals": {
            "post": {
                "tags": ["Calculations"],
                "summary": "Calculate totals",
                "description": "Tax and discount both apply to the subtotal; amounts are rounded half away from zero to cents",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/TotalsRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/TotalsResponse"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponseBody"}}}
            }
        },
        "/api/numbering/preview": {
            "get": {
                "tags": ["Numbering"],
                "summary": "Preview invoice number",
                "produces": ["application/json"],
                "parameters": [
                    {"$ref": "#/parameters/UserID"},
                    {"in": "query", "name": "pattern", "type": "string", "description": "Pattern to preview (defaults to the configured one)"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/NumberPreviewResponse"}}}
            }
        },
        "/api/invoices": {
            "get": {
                "tags": ["Invoices"],
                "summary": "List invoices",
                "produces": ["application/json"],
                "parameters": [
                    {"$ref": "#/parameters/UserID"},
                    {"in": "query", "name": "status", "type": "string", "enum": ["draft", "sent", "viewed", "partial", "overdue", "paid"]},
                    {"in": "query", "name": "limit", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/InvoiceListResponse"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponseBody"}}}
            },
            "post": {
                "tags": ["Invoices"],
                "summary": "Create invoice",
                "description": "Creates a draft invoice, computing totals and allocating the next number for the current day",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"$ref": "#/parameters/UserID"},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/CreateInvoiceRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/InvoiceResponse"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponseBody"}}}
            }
        },
        "/api/invoices/{id}": {
            "get": {
                "tags": ["Invoices"],
                "summary": "Get invoice",
                "produces": ["application/json"],
                "parameters": [{"$ref": "#/parameters/UserID"}, {"$ref": "#/parameters/InvoiceID"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/InvoiceResponse"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponseBody"}}}
            }
        },
        "/api/invoices/{id}/send": {
            "post": {
                "tags": ["Invoices"],
                "summary": "Send invoice",
                "description": "Moves a draft to sent (or overdue when already past due) and emails the client",
                "produces": ["application/json"],
                "parameters": [{"$ref": "#/parameters/UserID"}, {"$ref": "#/parameters/InvoiceID"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/InvoiceResponse"}}, "409": {"description": "Invoice is not a draft", "schema": {"$ref": "#/definitions/ErrorResponseBody"}}}
            }
        },
        "/api/invoices/{id}/view": {
            "post": {
                "tags": ["Invoices"],
                "summary": "Mark invoice viewed",
                "produces": ["application/json"],
                "parameters": [{"$ref": "#/parameters/UserID"}, {"$ref": "#/parameters/InvoiceID"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/InvoiceResponse"}}, "409": {"description": "Invoice is a draft", "schema": {"$ref": "#/definitions/ErrorResponseBody"}}}
            }
        },
        "/api/invoices/{id}/payments": {
            "get": {
                "tags": ["Payments"],
                "summary": "List payments",
                "produces": ["application/json"],
                "parameters": [{"$ref": "#/parameters/UserID"}, {"$ref": "#/parameters/InvoiceID"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/PaymentListResponse"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponseBody"}}}
            },
            "post": {
                "tags": ["Payments"],
                "summary": "Record payment",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"$ref": "#/parameters/UserID"},
                    {"$ref": "#/parameters/InvoiceID"},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/RecordPaymentRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/RecordPaymentResponse"}}, "400": {"description": "Amount not positive", "schema": {"$ref": "#/definitions/ErrorResponseBody"}}, "409": {"description": "Invoice is a draft or already paid", "schema": {"$ref": "#/definitions/ErrorResponseBody"}}}
            }
        },
        "/api/invoices/{id}/pdf": {
            "get": {
                "tags": ["Invoices"],
                "summary": "Download invoice PDF",
                "produces": ["application/pdf"],
                "parameters": [{"$ref": "#/parameters/UserID"}, {"$ref": "#/parameters/InvoiceID"}],
                "responses": {"200": {"description": "PDF document"}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponseBody"}}, "501": {"description": "PDF rendering disabled", "schema": {"$ref": "#/definitions/ErrorResponseBody"}}}
            }
        },
        "/api/reports/summary": {
            "get": {
                "tags": ["Reports"],
                "summary": "Invoice summary",
                "produces": ["application/json"],
                "parameters": [{"$ref": "#/parameters/UserID"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/SummaryResponse"}}}
            }
        },
        "/api/gateways": {
            "get": {
                "tags": ["Gateways"],
                "summary": "List gateway settings",
                "produces": ["application/json"],
                "parameters": [{"$ref": "#/parameters/UserID"}],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/GatewaySettingsResponse"}}}}
            }
        },
        "/api/gateways/{gateway}": {
            "get": {
                "tags": ["Gateways"],
                "summary": "Get gateway settings",
                "produces": ["application/json"],
                "parameters": [{"$ref": "#/parameters/UserID"}, {"$ref": "#/parameters/Gateway"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/GatewaySettingsResponse"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponseBody"}}}
            },
            "put": {
                "tags": ["Gateways"],
                "summary": "Save gateway settings",
                "description": "Secrets are sealed before they are stored and returned masked",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"$ref": "#/parameters/UserID"},
                    {"$ref": "#/parameters/Gateway"},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/GatewaySettingsRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/GatewaySettingsResponse"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponseBody"}}}
            },
            "delete": {
                "tags": ["Gateways"],
                "summary": "Delete gateway settings",
                "parameters": [{"$ref": "#/parameters/UserID"}, {"$ref": "#/parameters/Gateway"}],
                "responses": {"204": {"description": "No Content"}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponseBody"}}}
            }
        },
        "/public/invoices/{token}": {
            "get": {
                "tags": ["Public"],
                "summary": "View invoice as client",
                "description": "Marks the invoice viewed on first access. Cost, profit and client email are not shown.",
                "produces": ["application/json"],
                "parameters": [{"in": "path", "name": "token", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/InvoiceResponse"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponseBody"}}}
            }
        }
    },
    "parameters": {
        "UserID": {"in": "header", "name": "X-User-ID", "type": "string", "required": true, "description": "Tenant"},
        "InvoiceID": {"in": "path", "name": "id", "type": "string", "required": true, "description": "Invoice ID"},
        "Gateway": {"in": "path", "name": "gateway", "type": "string", "required": true, "enum": ["stripe", "paypal", "razorpay", "bank_transfer"]}
    },
    "definitions": {
        "ErrorResponseBody": {
            "type": "object",
            "properties": {"error": {"type": "object", "properties": {"code": {"type": "string", "example": "not_found"}, "message": {"type": "string", "example": "invoice not found"}}}}
        },
        "VersionResponse": {
            "type": "object",
            "properties": {"version": {"type": "string", "example": "1.0.0"}, "service": {"type": "string", "example": "invoicer"}}
        },
        "LineItem": {
            "type": "object",
            "properties": {"description": {"type": "string"}, "quantity": {"type": "string", "example": "2"}, "unit_price": {"type": "string", "example": "100.00"}}
        },
        "Profit": {
            "type": "object",
            "properties": {"margin": {"type": "string"}, "margin_percentage": {"type": "string"}}
        },
        "TotalsRequest": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/LineItem"}},
                "tax_rate": {"type": "string", "example": "10"},
                "discount_rate": {"type": "string", "example": "5"},
                "cost_price": {"type": "string", "example": "150"},
                "amount_paid": {"type": "string", "example": "0"}
            }
        },
        "TotalsResponse": {
            "type": "object",
            "properties": {
                "subtotal": {"type": "string"},
                "tax_amount": {"type": "string"},
                "discount_amount": {"type": "string"},
                "total": {"type": "string"},
                "profit": {"$ref": "#/definitions/Profit"},
                "remaining": {"type": "string"}
            }
        },
        "NumberPreviewResponse": {
            "type": "object",
            "properties": {"pattern": {"type": "string", "example": "INV-{YYYY}{MM}-{0000}"}, "example": {"type": "string", "example": "INV-202401-0001"}, "next": {"type": "string", "example": "INV-202401-0003"}}
        },
        "CreateInvoiceRequest": {
            "type": "object",
            "properties": {
                "client_name": {"type": "string", "example": "Jane Client"},
                "client_email": {"type": "string", "example": "jane@example.com"},
                "currency": {"type": "string", "example": "USD"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/LineItem"}},
                "tax_rate": {"type": "string", "example": "10"},
                "discount_rate": {"type": "string", "example": "5"},
                "cost_price": {"type": "string", "example": "150"},
                "due_date": {"type": "string", "example": "2024-02-14"},
                "notes": {"type": "string"}
            }
        },
        "InvoiceResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "number": {"type": "string", "example": "INV-202401-0001"},
                "status": {"type": "string", "enum": ["draft", "sent", "viewed", "partial", "overdue", "paid"]},
                "client_name": {"type": "string"},
                "client_email": {"type": "string"},
                "currency": {"type": "string"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/LineItem"}},
                "tax_rate": {"type": "string"},
                "discount_rate": {"type": "string"},
                "subtotal": {"type": "string"},
                "tax_amount": {"type": "string"},
                "discount_amount": {"type": "string"},
                "total": {"type": "string"},
                "amount_paid": {"type": "string"},
                "remaining": {"type": "string"},
                "cost_price": {"type": "string"},
                "profit": {"$ref": "#/definitions/Profit"},
                "due_date": {"type": "string", "format": "date-time"},
                "notes": {"type": "string"},
                "view_token": {"type": "string"},
                "sent_at": {"type": "string", "format": "date-time"},
                "viewed_at": {"type": "string", "format": "date-time"},
                "paid_at": {"type": "string", "format": "date-time"},
                "created_at": {"type": "string", "format": "date-time"},
                "updated_at": {"type": "string", "format": "date-time"}
            }
        },
        "InvoiceListResponse": {
            "type": "object",
            "properties": {"invoices": {"type": "array", "items": {"$ref": "#/definitions/InvoiceResponse"}}, "count": {"type": "integer"}}
        },
        "RecordPaymentRequest": {
            "type": "object",
            "properties": {
                "amount": {"type": "string", "example": "100.00"},
                "method": {"type": "string", "enum": ["cash", "bank_transfer", "card", "gateway", "other"]},
                "reference": {"type": "string"},
                "paid_at": {"type": "string", "example": "2024-01-20"}
            }
        },
        "PaymentResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "invoice_id": {"type": "string"},
                "amount": {"type": "string"},
                "method": {"type": "string"},
                "reference": {"type": "string"},
                "paid_at": {"type": "string", "format": "date-time"},
                "created_at": {"type": "string", "format": "date-time"}
            }
        },
        "RecordPaymentResponse": {
            "type": "object",
            "properties": {"payment": {"$ref": "#/definitions/PaymentResponse"}, "invoice": {"$ref": "#/definitions/InvoiceResponse"}}
        },
        "PaymentListResponse": {
            "type": "object",
            "properties": {"payments": {"type": "array", "items": {"$ref": "#/definitions/PaymentResponse"}}, "total": {"type": "string"}}
        },
        "SummaryResponse": {
            "type": "object",
            "properties": {
                "invoice_count": {"type": "integer"},
                "by_status": {"type": "object", "additionalProperties": {"type": "integer"}},
                "total_invoiced": {"type": "string"},
                "total_paid": {"type": "string"},
                "total_outstanding": {"type": "string"},
                "overdue_amount": {"type": "string"},
                "total_profit": {"type": "string"},
                "collection_rate": {"type": "string"}
            }
        },
        "GatewaySettingsRequest": {
            "type": "object",
            "properties": {
                "mode": {"type": "string", "enum": ["test", "live"]},
                "enabled": {"type": "boolean"},
                "public_key": {"type": "string"},
                "secret_key": {"type": "string"},
                "webhook_secret": {"type": "string"}
            }
        },
        "GatewaySettingsResponse": {
            "type": "object",
            "properties": {
                "gateway": {"type": "string"},
                "mode": {"type": "string"},
                "enabled": {"type": "boolean"},
                "public_key": {"type": "string"},
                "secret_key": {"type": "string", "example": "********_abc"},
                "webhook_secret": {"type": "string"},
                "updated_at": {"type": "string", "format": "date-time"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Invoicer API",
	Description:      "Invoice totals, numbering, status tracking and payments for many users.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
