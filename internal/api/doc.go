// Package api exposes the application operations behind the CLI: registering
// uploads, inspecting the catalog, and querying or exporting aggregates.
package api
