// Package dataset loads delimited text tables (and xlsx workbooks) from a
// file path or an uploaded stream, and normalizes them to the canonical
// column contract the analytics layer expects: trimmed headers, repaired
// tab-collapsed payloads, canonical column names, typed date and numeric
// cells. Normalization is idempotent and never fails on missing optional
// columns; required-column enforcement happens downstream.
package dataset
