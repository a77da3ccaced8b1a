// Package extract turns uploaded files into raw payloads for standardization.
//
// Each physical format (CSV, Excel, JSON, image) has an Adapter that produces
// either a tabular payload (headers plus string rows) or a single-artifact
// payload. Extraction failures abort only the file that produced them.
package extract
