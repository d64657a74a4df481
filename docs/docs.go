// Package docs holds the OpenAPI description served under /swagger/ when the
// daemon is built with -tags=swagger. Regenerate with `swag init -g cmd/cpmanager/docs.go`.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "cpmanager maintainers"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/admin/activate": {
            "post": {
                "tags": ["admin"],
                "summary": "Register the hosted service",
                "responses": {
                    "204": {"description": "No Content"},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/admin/deactivate": {
            "post": {
                "tags": ["admin"],
                "summary": "Withdraw the hosted service",
                "responses": {
                    "204": {"description": "No Content"},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/admin/selftest": {
            "post": {
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Run diagnostics",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.SelfTestResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/admin/shutdown": {
            "post": {
                "tags": ["admin"],
                "summary": "Discard the hosted service",
                "responses": {
                    "204": {"description": "No Content"},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/admin/startup": {
            "post": {
                "consumes": ["application/json"],
                "tags": ["admin"],
                "summary": "Create the hosted service",
                "parameters": [
                    {
                        "description": "startup parameters",
                        "name": "params",
                        "in": "body",
                        "schema": {"type": "object", "additionalProperties": {"type": "string"}}
                    }
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/admin/state": {
            "get": {
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Current component state",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StateResponse"}}
                }
            }
        },
        "/admin/version": {
            "get": {
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Component version",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.VersionResponse"}}
                }
            }
        },
        "/objects": {
            "get": {
                "produces": ["application/json"],
                "tags": ["adapter"],
                "summary": "Identities visible on the service adapter",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ObjectsResponse"}}
                }
            }
        },
        "/sbstate": {
            "post": {
                "consumes": ["application/json"],
                "tags": ["notify"],
                "summary": "Publish a scheduling block state change",
                "parameters": [
                    {
                        "description": "state change",
                        "name": "change",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/types.SBStateRequest"}
                    }
                ],
                "responses": {
                    "202": {"description": "Accepted"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "integer", "example": 400},
                "error": {"type": "string", "example": "invalid JSON body"}
            }
        },
        "types.ObjectsResponse": {
            "type": "object",
            "properties": {
                "objects": {"type": "array", "items": {"type": "string"}}
            }
        },
        "types.SBStateRequest": {
            "type": "object",
            "properties": {
                "sbid": {"type": "integer", "example": 2056},
                "state": {"type": "string", "example": "PROCESSING"},
                "update_time": {"type": "string"}
            }
        },
        "types.SelfTestResponse": {
            "type": "object",
            "properties": {
                "results": {"type": "array", "items": {"$ref": "#/definitions/types.TestResult"}}
            }
        },
        "types.StateResponse": {
            "type": "object",
            "properties": {
                "state": {"type": "string", "example": "STANDBY"}
            }
        },
        "types.TestResult": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "name": {"type": "string"},
                "passed": {"type": "boolean"}
            }
        },
        "types.VersionResponse": {
            "type": "object",
            "properties": {
                "version": {"type": "string", "example": "0.3.0"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "cpmanager API",
	Description:      "Administrative HTTP API for the central processor manager.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
