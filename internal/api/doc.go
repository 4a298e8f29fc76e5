// Package api serves the generation jobs over HTTP with gin.
//
// Routes: POST /generate-preview-audio and POST /generate-full-video run jobs
// synchronously and answer with {success, ...} or {success:false, error}.
// GET /health and GET /metrics are unauthenticated. Request bodies are
// validated with go-playground/validator; the blobpath rule rejects empty keys and
// keys with dot segments before a job starts.
package api
