// Package docs holds the OpenAPI document served at /swagger. It follows the
// layout swag init produces and is kept in step with the handler annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
	"schemes": {{ marshal .Schemes }},
	"swagger": "2.0",
	"info": {
		"description": "{{escape .Description}}",
		"title": "{{.Title}}",
		"contact": {},
		"license": {
			"name": "MIT",
			"url": "https://opensource.org/licenses/MIT"
		},
		"version": "{{.Version}}"
	},
	"host": "{{.Host}}",
	"basePath": "{{.BasePath}}",
	"paths": {
		"/events": {
			"get": {
				"description": "WebSocket endpoint sending one JSON event per message",
				"tags": [
					"events"
				],
				"summary": "Stream extraction and sync progress",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"responses": {
					"101": {
						"description": "Switching Protocols"
					}
				}
			}
		},
		"/extract/chunk": {
			"post": {
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"extraction"
				],
				"summary": "Upload one extraction chunk",
				"parameters": [
					{
						"description": "Chunk",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/models.ExtractChunkRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/models.ExtractChunkResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/extract/finalize": {
			"post": {
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"extraction"
				],
				"summary": "Write a complete extraction to disk",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"description": "Session and project",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/models.ExtractFinalizeRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/models.ExtractFinalizeResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"422": {
						"description": "Unprocessable Entity",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/extract/reset": {
			"post": {
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"extraction"
				],
				"summary": "Abandon the current extraction",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/models.ExtractResetResponse"
						}
					}
				}
			}
		},
		"/extract/start": {
			"post": {
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"extraction"
				],
				"summary": "Start a full extraction",
				"parameters": [
					{
						"description": "Extraction options",
						"name": "request",
						"in": "body",
						"required": false,
						"schema": {
							"$ref": "#/definitions/models.ExtractStartRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/models.ExtractStartResponse"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/extract/status": {
			"get": {
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"extraction"
				],
				"summary": "Extraction progress",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/models.ExtractStatusResponse"
						}
					}
				}
			}
		},
		"/git/commit": {
			"post": {
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"git"
				],
				"summary": "Commit project changes",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"description": "Commit",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/vcs.CommitRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/vcs.CommitResult"
						}
					}
				}
			}
		},
		"/git/status": {
			"post": {
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"git"
				],
				"summary": "Git status of a project",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"description": "Project",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/vcs.StatusRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/vcs.Status"
						}
					}
				}
			}
		},
		"/harness/feature/update": {
			"post": {
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"harness"
				],
				"summary": "Create or update a feature",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"description": "Feature",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/harness.FeatureUpdate"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/harness.FeatureResult"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"type": "object",
							"additionalProperties": true
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"type": "object",
							"additionalProperties": true
						}
					}
				}
			}
		},
		"/harness/init": {
			"post": {
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"harness"
				],
				"summary": "Initialize the development harness",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"description": "Game",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/harness.InitRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/harness.InitResult"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"type": "object",
							"additionalProperties": true
						}
					}
				}
			}
		},
		"/harness/session/end": {
			"post": {
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"harness"
				],
				"summary": "End a development session",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"description": "Session",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/harness.SessionEndRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/harness.SessionEndResult"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"type": "object",
							"additionalProperties": true
						}
					}
				}
			}
		},
		"/harness/session/start": {
			"post": {
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"harness"
				],
				"summary": "Start a development session",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"description": "Session",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/harness.SessionStartRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/harness.SessionStartResult"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"type": "object",
							"additionalProperties": true
						}
					}
				}
			}
		},
		"/harness/status": {
			"post": {
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"harness"
				],
				"summary": "Harness state of a project",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"description": "Project",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/harness.StatusRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/harness.Status"
						}
					}
				}
			}
		},
		"/health": {
			"get": {
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"plugin"
				],
				"summary": "Server health",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/models.HealthResponse"
						}
					}
				}
			}
		},
		"/insert": {
			"post": {
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"exec"
				],
				"summary": "Insert a marketplace model",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"description": "Asset",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/models.InsertModelRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/models.InsertModelResult"
						}
					},
					"502": {
						"description": "Bad Gateway",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/request": {
			"get": {
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"plugin"
				],
				"summary": "Long-poll for a plugin command",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/models.PluginRequest"
						}
					},
					"204": {
						"description": "No command queued"
					}
				}
			}
		},
		"/response": {
			"post": {
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"plugin"
				],
				"summary": "Deliver a plugin response",
				"parameters": [
					{
						"description": "Response",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/models.PluginResponse"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "boolean"
							}
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/run": {
			"post": {
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"exec"
				],
				"summary": "Run Luau in the host",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"description": "Code",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/models.RunCodeRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/models.RunCodeResponse"
						}
					},
					"502": {
						"description": "Bad Gateway",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"504": {
						"description": "Gateway Timeout",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/sync": {
			"post": {
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"sync"
				],
				"summary": "Push local changes to the host",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"description": "Project",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/models.SyncRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/models.SyncResult"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"503": {
						"description": "Service Unavailable",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"504": {
						"description": "Gateway Timeout",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		}
	},
	"definitions": {
		"harness.Feature": {
			"type": "object",
			"properties": {
				"acceptanceCriteria": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"affectedFiles": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"complexity": {
					"type": "integer"
				},
				"createdAt": {
					"type": "string"
				},
				"dependencies": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"description": {
					"type": "string"
				},
				"id": {
					"type": "string"
				},
				"name": {
					"type": "string"
				},
				"priority": {
					"type": "string"
				},
				"sessions": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"status": {
					"type": "string"
				},
				"tags": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"updatedAt": {
					"type": "string"
				}
			}
		},
		"harness.FeatureResult": {
			"type": "object",
			"properties": {
				"featureId": {
					"type": "string"
				},
				"message": {
					"type": "string"
				},
				"success": {
					"type": "boolean"
				}
			}
		},
		"harness.FeatureSummary": {
			"type": "object",
			"properties": {
				"blocked": {
					"type": "integer"
				},
				"cancelled": {
					"type": "integer"
				},
				"completed": {
					"type": "integer"
				},
				"inProgress": {
					"type": "integer"
				},
				"planned": {
					"type": "integer"
				},
				"total": {
					"type": "integer"
				}
			}
		},
		"harness.FeatureUpdate": {
			"type": "object",
			"required": [
				"projectDir"
			],
			"properties": {
				"acceptanceCriteria": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"addNote": {
					"type": "string"
				},
				"affectedFiles": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"complexity": {
					"type": "integer"
				},
				"dependencies": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"description": {
					"type": "string"
				},
				"featureId": {
					"type": "string"
				},
				"name": {
					"type": "string"
				},
				"priority": {
					"type": "string"
				},
				"projectDir": {
					"type": "string"
				},
				"sessionId": {
					"type": "string"
				},
				"status": {
					"type": "string"
				},
				"tags": {
					"type": "array",
					"items": {
						"type": "string"
					}
				}
			}
		},
		"harness.Game": {
			"type": "object",
			"properties": {
				"createdAt": {
					"type": "string"
				},
				"description": {
					"type": "string"
				},
				"genre": {
					"type": "string"
				},
				"id": {
					"type": "string"
				},
				"name": {
					"type": "string"
				},
				"template": {
					"type": "string"
				},
				"updatedAt": {
					"type": "string"
				}
			}
		},
		"harness.InitRequest": {
			"type": "object",
			"required": [
				"projectDir"
			],
			"properties": {
				"description": {
					"type": "string"
				},
				"gameName": {
					"type": "string"
				},
				"genre": {
					"type": "string"
				},
				"projectDir": {
					"type": "string"
				},
				"template": {
					"type": "string"
				}
			}
		},
		"harness.InitResult": {
			"type": "object",
			"properties": {
				"featuresAdded": {
					"type": "integer"
				},
				"gameId": {
					"type": "string"
				},
				"harnessDir": {
					"type": "string"
				},
				"message": {
					"type": "string"
				},
				"success": {
					"type": "boolean"
				},
				"templateApplied": {
					"type": "string"
				}
			}
		},
		"harness.SessionEndRequest": {
			"type": "object",
			"required": [
				"projectDir",
				"sessionId"
			],
			"properties": {
				"handoffNotes": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"projectDir": {
					"type": "string"
				},
				"sessionId": {
					"type": "string"
				},
				"summary": {
					"type": "string"
				}
			}
		},
		"harness.SessionEndResult": {
			"type": "object",
			"properties": {
				"message": {
					"type": "string"
				},
				"session": {
					"$ref": "#/definitions/harness.Session"
				},
				"success": {
					"type": "boolean"
				}
			}
		},
		"harness.Session": {
			"type": "object",
			"properties": {
				"endedAt": {
					"type": "string"
				},
				"featuresWorked": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"handoffNotes": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"id": {
					"type": "string"
				},
				"initialGoals": {
					"type": "string"
				},
				"startedAt": {
					"type": "string"
				},
				"summary": {
					"type": "string"
				}
			}
		},
		"harness.SessionStartRequest": {
			"type": "object",
			"required": [
				"projectDir"
			],
			"properties": {
				"initialGoals": {
					"type": "string"
				},
				"projectDir": {
					"type": "string"
				}
			}
		},
		"harness.SessionStartResult": {
			"type": "object",
			"properties": {
				"message": {
					"type": "string"
				},
				"sessionId": {
					"type": "string"
				},
				"sessionPath": {
					"type": "string"
				},
				"success": {
					"type": "boolean"
				}
			}
		},
		"harness.SessionSummary": {
			"type": "object",
			"properties": {
				"endedAt": {
					"type": "string"
				},
				"featuresCount": {
					"type": "integer"
				},
				"id": {
					"type": "string"
				},
				"startedAt": {
					"type": "string"
				},
				"summary": {
					"type": "string"
				}
			}
		},
		"harness.Status": {
			"type": "object",
			"properties": {
				"featureSummary": {
					"$ref": "#/definitions/harness.FeatureSummary"
				},
				"features": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/harness.Feature"
					}
				},
				"game": {
					"$ref": "#/definitions/harness.Game"
				},
				"initialized": {
					"type": "boolean"
				},
				"recentSessions": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/harness.SessionSummary"
					}
				},
				"success": {
					"type": "boolean"
				}
			}
		},
		"harness.StatusRequest": {
			"type": "object",
			"required": [
				"projectDir"
			],
			"properties": {
				"projectDir": {
					"type": "string"
				}
			}
		},
		"models.ErrorResponse": {
			"type": "object",
			"properties": {
				"code": {
					"type": "string"
				},
				"details": {
					"type": "object",
					"additionalProperties": {
						"type": "string"
					}
				},
				"error": {
					"type": "string"
				}
			}
		},
		"models.ExtractChunkRequest": {
			"type": "object",
			"properties": {
				"chunkIndex": {
					"type": "integer"
				},
				"data": {},
				"sessionId": {
					"type": "string"
				},
				"totalChunks": {
					"type": "integer"
				}
			}
		},
		"models.ExtractChunkResponse": {
			"type": "object",
			"properties": {
				"received": {
					"type": "integer"
				},
				"total": {
					"type": "integer"
				}
			}
		},
		"models.ExtractFinalizeRequest": {
			"type": "object",
			"required": [
				"projectDir"
			],
			"properties": {
				"projectDir": {
					"type": "string"
				},
				"sessionId": {
					"type": "string"
				}
			}
		},
		"models.ExtractFinalizeResponse": {
			"type": "object",
			"properties": {
				"filesWritten": {
					"type": "integer"
				},
				"instances": {
					"type": "integer"
				},
				"success": {
					"type": "boolean"
				},
				"warnings": {
					"type": "array",
					"items": {
						"type": "string"
					}
				}
			}
		},
		"models.ExtractResetResponse": {
			"type": "object",
			"properties": {
				"sessionId": {
					"type": "string"
				},
				"success": {
					"type": "boolean"
				}
			}
		},
		"models.ExtractStartRequest": {
			"type": "object",
			"properties": {
				"includeAssets": {
					"type": "boolean"
				},
				"includeTerrain": {
					"type": "boolean"
				},
				"services": {
					"type": "array",
					"items": {
						"type": "string"
					}
				}
			}
		},
		"models.ExtractStartResponse": {
			"type": "object",
			"properties": {
				"sessionId": {
					"type": "string"
				},
				"status": {
					"type": "string"
				}
			}
		},
		"models.ExtractStatusResponse": {
			"type": "object",
			"properties": {
				"chunksReceived": {
					"type": "integer"
				},
				"complete": {
					"type": "boolean"
				},
				"sessionId": {
					"type": "string"
				},
				"state": {
					"type": "string"
				},
				"status": {
					"type": "string"
				},
				"totalChunks": {
					"type": "integer"
				}
			}
		},
		"models.HealthResponse": {
			"type": "object",
			"properties": {
				"pendingRequests": {
					"type": "integer"
				},
				"pluginConnected": {
					"type": "boolean"
				},
				"queueDepth": {
					"type": "integer"
				},
				"status": {
					"type": "string"
				},
				"version": {
					"type": "string"
				}
			}
		},
		"models.InsertModelRequest": {
			"type": "object",
			"required": [
				"assetId"
			],
			"properties": {
				"assetId": {
					"type": "integer"
				},
				"parent": {
					"type": "string"
				}
			}
		},
		"models.InsertModelResult": {
			"type": "object",
			"properties": {
				"className": {
					"type": "string"
				},
				"insertedName": {
					"type": "string"
				},
				"insertedPath": {
					"type": "string"
				}
			}
		},
		"models.OperationError": {
			"type": "object",
			"properties": {
				"error": {
					"type": "string"
				},
				"path": {
					"type": "string"
				},
				"referenceId": {
					"type": "string"
				}
			}
		},
		"models.PluginRequest": {
			"type": "object",
			"properties": {
				"command": {
					"type": "string"
				},
				"id": {
					"type": "string"
				},
				"payload": {}
			}
		},
		"models.PluginResponse": {
			"type": "object",
			"properties": {
				"data": {},
				"error": {
					"type": "string"
				},
				"id": {
					"type": "string"
				},
				"success": {
					"type": "boolean"
				}
			}
		},
		"models.RunCodeRequest": {
			"type": "object",
			"required": [
				"code"
			],
			"properties": {
				"code": {
					"type": "string"
				}
			}
		},
		"models.RunCodeResponse": {
			"type": "object",
			"properties": {
				"output": {
					"type": "string"
				},
				"success": {
					"type": "boolean"
				}
			}
		},
		"models.SyncRequest": {
			"type": "object",
			"required": [
				"projectDir"
			],
			"properties": {
				"delete": {
					"type": "boolean"
				},
				"projectDir": {
					"type": "string"
				}
			}
		},
		"models.SyncResult": {
			"type": "object",
			"properties": {
				"applied": {
					"type": "integer"
				},
				"deletes": {
					"type": "integer"
				},
				"errors": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/models.OperationError"
					}
				},
				"filesChecked": {
					"type": "integer"
				},
				"filesModified": {
					"type": "integer"
				},
				"fullSync": {
					"type": "boolean"
				},
				"reason": {
					"type": "string"
				},
				"skipped": {
					"type": "boolean"
				},
				"success": {
					"type": "boolean"
				},
				"upserts": {
					"type": "integer"
				}
			}
		},
		"vcs.CommitRequest": {
			"type": "object",
			"required": [
				"message",
				"projectDir"
			],
			"properties": {
				"files": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"message": {
					"type": "string"
				},
				"projectDir": {
					"type": "string"
				}
			}
		},
		"vcs.CommitResult": {
			"type": "object",
			"properties": {
				"error": {
					"type": "string"
				},
				"hash": {
					"type": "string"
				},
				"success": {
					"type": "boolean"
				}
			}
		},
		"vcs.Status": {
			"type": "object",
			"properties": {
				"branch": {
					"type": "string"
				},
				"isRepo": {
					"type": "boolean"
				},
				"modified": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"staged": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"untracked": {
					"type": "array",
					"items": {
						"type": "string"
					}
				}
			}
		},
		"vcs.StatusRequest": {
			"type": "object",
			"required": [
				"projectDir"
			],
			"properties": {
				"projectDir": {
					"type": "string"
				}
			}
		}
	},
	"securityDefinitions": {
		"BearerAuth": {
			"description": "Type \"Bearer\" followed by a space and the JWT token.",
			"type": "apiKey",
			"name": "Authorization",
			"in": "header"
		}
	}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:		  "1.0",
	Host:			 "localhost:44755",
	BasePath:		 "/",
	Schemes:		  []string{},
	Title:			"RbxSync Server API",
	Description:	  "Bridge between a Roblox Studio plugin and local project files.\nThe plugin long-polls /request for commands and posts results to /response.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:		"{{",
	RightDelim:	   "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
