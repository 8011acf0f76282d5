// Package docs holds the OpenAPI document served at /swagger.
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
        "/status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["System Management"],
                "summary": "Get watcher status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.SystemStatus"}}
                }
            }
        },
        "/config": {
            "get": {
                "produces": ["application/json"],
                "tags": ["System Management"],
                "summary": "Get configuration",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/snapshots": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Snapshots"],
                "summary": "List stored snapshots",
                "parameters": [
                    {"type": "integer", "description": "Maximum number of snapshots (default 20, max 500)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.SnapshotListResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/screenshot": {
            "get": {
                "produces": ["image/png"],
                "tags": ["Operator"],
                "summary": "Screenshot of the live tab",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/click": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Operator"],
                "summary": "Click at viewport coordinates",
                "parameters": [
                    {"description": "Viewport coordinates", "name": "click", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.ClickRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.ActionResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/init": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Operator"],
                "summary": "Initialize the browser session",
                "parameters": [
                    {"type": "boolean", "description": "Block until initialization finishes", "name": "wait", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.ActionResponse"}},
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/models.ActionResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            },
            "post": {
                "produces": ["application/json"],
                "tags": ["Operator"],
                "summary": "Initialize the browser session",
                "parameters": [
                    {"type": "boolean", "description": "Block until initialization finishes", "name": "wait", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.ActionResponse"}},
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/models.ActionResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/restart": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Operator"],
                "summary": "Restart the browser session",
                "parameters": [
                    {"type": "boolean", "description": "Block until the restart finishes", "name": "wait", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.ActionResponse"}},
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/models.ActionResponse"}}
                }
            },
            "post": {
                "produces": ["application/json"],
                "tags": ["Operator"],
                "summary": "Restart the browser session",
                "parameters": [
                    {"type": "boolean", "description": "Block until the restart finishes", "name": "wait", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.ActionResponse"}},
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/models.ActionResponse"}}
                }
            }
        },
        "/cookies/clear": {
            "post": {
                "produces": ["application/json"],
                "tags": ["Operator"],
                "summary": "Clear cookies",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.ActionResponse"}}
                }
            }
        },
        "/check": {
            "post": {
                "produces": ["application/json"],
                "tags": ["Operator"],
                "summary": "Force a schedule check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.ActionResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/scheduler/status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Scheduler"],
                "summary": "Get scheduler status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.SchedulerStatus"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/scheduler/jobs": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Scheduler"],
                "summary": "List scheduled jobs",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.JobListResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "models.ActionResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean", "example": true},
                "message": {"type": "string", "example": "Browser session initialized"},
                "session_state": {"type": "string", "example": "ready"},
                "outcome": {"type": "string", "example": "same_hash"},
                "timestamp": {"type": "string", "example": "2025-11-04T08:13:24Z"}
            }
        },
        "models.ClickRequest": {
            "type": "object",
            "required": ["x", "y"],
            "properties": {
                "x": {"type": "number", "example": 640},
                "y": {"type": "number", "example": 360}
            }
        },
        "models.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "boolean", "example": true},
                "message": {"type": "string", "example": "Browser session is not ready"},
                "code": {"type": "integer", "example": 503},
                "details": {"type": "string"},
                "request_id": {"type": "string"}
            }
        },
        "models.JobListResponse": {
            "type": "object",
            "properties": {
                "jobs": {"type": "array", "items": {"type": "object"}},
                "count": {"type": "integer", "example": 2},
                "timestamp": {"type": "string"}
            }
        },
        "models.SchedulerStatus": {
            "type": "object",
            "properties": {
                "running": {"type": "boolean", "example": true},
                "job_count": {"type": "integer", "example": 2},
                "entries": {"type": "integer", "example": 2},
                "timestamp": {"type": "string"}
            }
        },
        "models.SnapshotListResponse": {
            "type": "object",
            "properties": {
                "snapshots": {"type": "array", "items": {"$ref": "#/definitions/models.SnapshotSummary"}},
                "count": {"type": "integer", "example": 1}
            }
        },
        "models.SnapshotSummary": {
            "type": "object",
            "properties": {
                "id": {"type": "integer", "example": 12},
                "captured_at": {"type": "string"},
                "report_update_timestamp": {"type": "string", "example": "04.11.2025 10:41"},
                "schedule_hash": {"type": "string"},
                "tomorrow_hash": {"type": "string"},
                "tomorrow_date": {"type": "string", "example": "05.11.25"},
                "outage_hours_today": {"type": "array", "items": {"type": "string"}},
                "outage_hours_tomorrow": {"type": "array", "items": {"type": "string"}},
                "anomalies": {"type": "integer", "example": 0},
                "schema_version": {"type": "integer", "example": 2}
            }
        },
        "models.SystemStatus": {
            "type": "object",
            "properties": {
                "service": {"type": "string", "example": "outagewatch"},
                "version": {"type": "string", "example": "1.0.0"},
                "timestamp": {"type": "string"},
                "uptime": {"type": "string", "example": "3h12m5s"},
                "session_state": {"type": "string", "example": "ready"},
                "last_report_timestamp": {"type": "string", "example": "04.11.2025 10:41"},
                "last_check_at": {"type": "string"},
                "last_outcome": {"type": "string", "example": "unchanged"},
                "last_error": {"type": "string"},
                "last_change_at": {"type": "string"},
                "baseline_hash": {"type": "string"},
                "baseline_captured_at": {"type": "string"},
                "outage_hours_today": {"type": "array", "items": {"type": "string"}},
                "has_cookies": {"type": "boolean"},
                "ticks": {"type": "integer", "example": 42},
                "scheduler": {"$ref": "#/definitions/models.SchedulerStatus"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "outagewatch API",
	Description:      "Operator API of the power outage schedule watcher.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
