// Package errors provides structured, coded errors for the catalog
// compilation pipeline.
//
// Each pipeline stage maps to one error code: ErrCodeConfig for inventory
// resolution, ErrCodeFetch for component synchronization, ErrCodeRender for
// the rendering stage, and ErrCodeCatalog for catalog assembly and commit.
// Additional codes cover ambient concerns shared with the API server.
//
// Errors carry an optional cause (unwrapped via errors.Is/As) and a context
// map used to pinpoint the cluster, component, and revision involved.
package errors
