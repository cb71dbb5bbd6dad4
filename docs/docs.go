// Package docs registra el documento OpenAPI que sirve /swagger/*.
// Sigue el formato de `swag init`; al cambiar las anotaciones de los
// handlers hay que regenerarlo.
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
            "get": {
                "tags": ["health"],
                "summary": "Healthcheck",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/getrecomenders": {
            "get": {
                "produces": ["application/json"],
                "tags": ["recommend"],
                "summary": "Animes similares a un título",
                "parameters": [
                    {"type": "string", "description": "título o fragmento", "name": "q", "in": "query", "required": true},
                    {"type": "integer", "description": "cantidad (default 10, máx 500)", "name": "topk", "in": "query"},
                    {"type": "integer", "description": "mínimo de usuarios en común (default 3)", "name": "minp", "in": "query"},
                    {"type": "string", "description": "score | name", "name": "order", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.SimilarItem"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorBody"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorBody"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.errorBody"}}
                }
            }
        },
        "/recommend_by_seen": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["recommend"],
                "summary": "Recomendaciones a partir de animes vistos",
                "parameters": [
                    {"description": "vistos, ratings opcionales, topk", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.SeenRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.RecItem"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorBody"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.errorBody"}}
                }
            }
        },
        "/titles": {
            "get": {
                "produces": ["application/json"],
                "tags": ["recommend"],
                "summary": "Autocompletado y listado de títulos",
                "parameters": [
                    {"type": "string", "description": "fragmento del título (mínimo 2 caracteres)", "name": "s", "in": "query"},
                    {"type": "integer", "description": "default 50, máx 500", "name": "limit", "in": "query"},
                    {"type": "integer", "description": "default 0", "name": "offset", "in": "query"},
                    {"type": "integer", "description": "min_periods del motor", "name": "minp", "in": "query"},
                    {"type": "integer", "description": "mínimo de ratings", "name": "min_r", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.TitlePage"}}
                }
            }
        },
        "/recommender/status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["recommend"],
                "summary": "Estado del motor de recomendación",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.EngineState"}}
                }
            }
        },
        "/admin/recommender/reload": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin-maintenance"],
                "summary": "Reconstruir el motor de recomendación",
                "parameters": [
                    {"type": "integer", "description": "min_periods (default el configurado)", "name": "minp", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.ReloadResult"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorBody"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorBody"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.errorBody"}}
                }
            }
        },
        "/admin/neighbors/rebuild": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin-maintenance"],
                "summary": "Precalcular vecinos",
                "parameters": [
                    {"description": "Parámetros de reconstrucción", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.RebuildNeighborsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.RebuildNeighborsResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorBody"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorBody"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorBody"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.errorBody"}}
                }
            }
        },
        "/admin/ws/neighbors/rebuild": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["admin-maintenance"],
                "summary": "Precalcular vecinos con progreso en tiempo real (WebSocket)",
                "parameters": [
                    {"type": "integer", "description": "min_periods", "name": "minPeriods", "in": "query"},
                    {"type": "integer", "description": "vecinos por anime", "name": "topK", "in": "query"},
                    {"type": "integer", "description": "mínimo de ratings por anime", "name": "popularityFloor", "in": "query"},
                    {"type": "boolean", "description": "reescribir si existe", "name": "overwrite", "in": "query"},
                    {"type": "boolean", "description": "recargar el motor al terminar", "name": "reload", "in": "query"}
                ],
                "responses": {"101": {"description": "Switching Protocols"}}
            }
        }
    },
    "definitions": {
        "handler.errorBody": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "models.SimilarItem": {
            "type": "object",
            "properties": {
                "anime_id": {"type": "integer"},
                "name": {"type": "string"},
                "correlation": {"type": "number"},
                "common": {"type": "integer"},
                "genre": {"type": "string"},
                "episodes": {"type": "integer"}
            }
        },
        "models.RecItem": {
            "type": "object",
            "properties": {
                "anime_id": {"type": "integer"},
                "name": {"type": "string"},
                "score": {"type": "number"},
                "genre": {"type": "string"},
                "episodes": {"type": "integer"}
            }
        },
        "models.SeenRequest": {
            "type": "object",
            "properties": {
                "seen_names": {"type": "array", "items": {"type": "string"}},
                "seen_ids": {"type": "array", "items": {"type": "integer"}},
                "ratings": {"type": "object", "additionalProperties": {"type": "number"}},
                "rating": {"type": "number"},
                "topk": {"type": "integer"},
                "minp": {"type": "integer"},
                "order": {"type": "string", "enum": ["score", "name"]}
            }
        },
        "models.TitleResult": {
            "type": "object",
            "properties": {
                "anime_id": {"type": "integer"},
                "name": {"type": "string"},
                "members": {"type": "integer"},
                "rating_count": {"type": "integer"},
                "genre": {"type": "string"},
                "episodes": {"type": "integer"}
            }
        },
        "models.TitlePage": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "results": {"type": "array", "items": {"$ref": "#/definitions/models.TitleResult"}}
            }
        },
        "models.EngineState": {
            "type": "object",
            "properties": {
                "state": {"type": "string", "enum": ["unbuilt", "building", "ready", "failed"]},
                "ready": {"type": "boolean"},
                "built_at": {"type": "string"},
                "build_seconds": {"type": "number"},
                "mode": {"type": "string", "enum": ["cached", "fallback"]},
                "min_periods": {"type": "integer"},
                "generation": {"type": "string"},
                "users": {"type": "integer"},
                "items": {"type": "integer"},
                "ratings": {"type": "integer"},
                "cached_items": {"type": "integer"},
                "error": {"type": "string"}
            }
        },
        "models.ReloadResult": {
            "type": "object",
            "properties": {"status": {"$ref": "#/definitions/models.EngineState"}}
        },
        "models.RebuildNeighborsRequest": {
            "type": "object",
            "properties": {
                "minPeriods": {"type": "integer"},
                "topK": {"type": "integer"},
                "popularityFloor": {"type": "integer"},
                "overwrite": {"type": "boolean"},
                "workers": {"type": "integer"},
                "reload": {"type": "boolean"}
            }
        },
        "models.RebuildNeighborsResult": {
            "type": "object",
            "properties": {
                "generation": {"type": "string"},
                "skipped": {"type": "boolean"},
                "items": {"type": "integer"},
                "edges": {"type": "integer"},
                "elapsedSeconds": {"type": "number"},
                "location": {"type": "string"},
                "engine": {"$ref": "#/definitions/models.EngineState"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8000",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Anime Recommender API",
	Description:      "Recomendador item-item (Pearson) sobre ratings de anime.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
