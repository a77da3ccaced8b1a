// Package services defines the shared error taxonomy for pipeline stages.
package services
