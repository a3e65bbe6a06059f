// Package api provides the HTTP server for spritewire.
//
// It exposes the inbound webhook endpoint (POST /hooks/{source}), the
// administrative automation CRUD under /api/v1/automations, a health
// probe and the Prometheus metrics endpoint.
//
// The server follows the same lifecycle pattern as the other
// infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api
