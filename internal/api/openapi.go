package api

import (
	"github.com/mattjoyce/debugbridge/internal/bridge"
)

func jsonResponse(description string) map[string]any {
	return map[string]any{
		"description": description,
		"content": map[string]any{
			"application/json": map[string]any{},
		},
	}
}

// buildOpenAPIDoc describes the HTTP surface. The debugger methods served on
// /ws are listed under x-debugger-methods.
func buildOpenAPIDoc(version string) map[string]any {
	return map[string]any{
		"openapi": "3.1.0",
		"info": map[string]any{
			"title":   "debugbridge",
			"version": version,
		},
		"paths": map[string]any{
			"/healthz": map[string]any{
				"get": map[string]any{
					"operationId": "healthz",
					"responses":   map[string]any{"200": jsonResponse("Bridge health")},
				},
			},
			"/json": map[string]any{
				"get": map[string]any{
					"operationId": "listTargets",
					"responses":   map[string]any{"200": jsonResponse("Debug targets")},
				},
			},
			"/json/version": map[string]any{
				"get": map[string]any{
					"operationId": "version",
					"responses":   map[string]any{"200": jsonResponse("Protocol version")},
				},
			},
			"/ws": map[string]any{
				"get": map[string]any{
					"operationId":        "debugger",
					"summary":            "Debugger websocket",
					"x-debugger-methods": bridge.Methods(),
					"responses":          map[string]any{"101": map[string]any{"description": "Switching protocols"}},
				},
			},
			"/events": map[string]any{
				"get": map[string]any{
					"operationId": "events",
					"summary":     "Server-sent bridge events",
					"security":    []any{map[string]any{"BearerAuth": []string{}}},
					"responses": map[string]any{
						"200": map[string]any{"description": "text/event-stream"},
						"401": map[string]any{"description": "Missing or invalid API key"},
					},
				},
			},
		},
		"components": map[string]any{
			"securitySchemes": map[string]any{
				"BearerAuth": map[string]any{
					"type":   "http",
					"scheme": "bearer",
				},
			},
		},
	}
}
