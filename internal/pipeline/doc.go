// Package pipeline turns fetched articles into document sources.
//
// Stages:
//   - Parallel per-article processing (sanitize, optional image embedding)
//     with order restored after the workers finish
//   - Flowing document assembly: one styled HTML page with cover, table of
//     contents and one section per article, ready for the PDF renderer
//   - Chaptered book assembly: one chapter per article plus embedded assets,
//     ready for the EPUB writer
//   - Markdown preface rendering via Goldmark
//
// Rendering to a binary format is handled by the root later2pdf package.
package pipeline
