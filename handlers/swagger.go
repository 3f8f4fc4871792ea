package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>opencourse-identity — Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

// Minimal OpenAPI document describing the identity and enrollment endpoints.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "opencourse-identity", "version": "v0.1.0" },
  "paths": {
    "/auth/users/send_otp/": {
      "post": {
        "summary": "Send a one-time login code to a phone number",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"phone":{"type":"string"}},"required":["phone"]}}}},
        "responses": { "200": { "description": "code sent" }, "400": { "description": "invalid phone" } }
      }
    },
    "/auth/users/verify_otp/": {
      "post": {
        "summary": "Exchange phone and code for a token pair",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"phone":{"type":"string"},"code":{"type":"string"}},"required":["phone","code"]}}}},
        "responses": { "200": { "description": "access and refresh tokens plus user profile" }, "401": { "description": "code rejected" } }
      }
    },
    "/auth/users/social-auth/": {
      "post": {
        "summary": "Exchange a third-party identity grant for a token pair",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"provider":{"type":"string"},"id_token":{"type":"string"}},"required":["provider","id_token"]}}}},
        "responses": { "200": { "description": "tokens returned" }, "401": { "description": "grant rejected" } }
      }
    },
    "/auth/jwt/refresh/": {
      "post": {
        "summary": "Refresh the access token",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"refresh":{"type":"string"}},"required":["refresh"]}}}},
        "responses": { "200": { "description": "new access token" }, "401": { "description": "invalid refresh token" } }
      }
    },
    "/auth/users/logout/": {
      "post": {
        "summary": "Revoke the refresh token and blacklist the access token",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"refresh":{"type":"string"}}}}}},
        "responses": { "200": { "description": "logged out" } }
      }
    },
    "/auth/me": {
      "get": { "summary": "Current user profile", "responses": { "200": { "description": "profile" }, "401": { "description": "unauthenticated" } } }
    },
    "/courses/my-courses": {
      "get": { "summary": "Courses the current user is enrolled in", "responses": { "200": { "description": "enrollment list" } } }
    },
    "/courses/{id}/enroll": {
      "post": { "summary": "Enroll in a course", "responses": { "201": { "description": "enrolled" }, "409": { "description": "already enrolled" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
