// Package models defines domain entities for the genreshelf categorization service.
//
// The package contains two categories of types:
//
// 1. Ingestion types: strict schemas for records arriving from the music service
//   - [Track] : saved track with its artist references and mutable genre list
//   - [Artist] : artist reference (id + display name), owned by the catalog
//
// 2. Pipeline types: intermediate and final shapes of the categorization run
//   - [GenreIndex] : artist id → genre labels, built once per batch and discarded after enrichment
//   - [GenreBucket] / [CategorizedResult] : ordered genre → tracks mapping
//
// Upstream track and artist records carry no shape guarantees, so every
// decoded record passes through Validate before entering the pipeline.
// Genre labels are opaque strings: case-preserved, never normalized,
// never interpreted.
package models
