// Package later2pdf turns articles saved in a read-it-later service into a
// single PDF or EPUB.
//
// # Quick Start
//
// Create a backend source and a converter, convert, and clean up:
//
//	src, err := source.New("readeck", source.Options{Endpoint: "https://read.example.com"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	conv, err := later2pdf.NewConverter(src)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conv.Close()
//
//	res, err := conv.Convert(ctx, later2pdf.Request{
//	    Credentials: source.Credentials{APIKey: key},
//	    IDs:         []string{"a1", "a2"},
//	    Format:      later2pdf.FormatPDF,
//	    Layout:      later2pdf.LayoutTwoColumn,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer res.Cleanup()
//	err = res.SaveAs(res.Filename)
//
// # Conversion Pipeline
//
//  1. Fetch every requested id from the backend; failed ids are skipped
//  2. Sanitize each article on a pool of 5 workers (bluemonday, goquery,
//     chroma), restoring request order afterwards
//  3. Assemble one HTML document (cover, table of contents, preface,
//     articles) or one EPUB chapter per article
//  4. Render the HTML with headless Chrome (go-rod), re-encoding every
//     remote image on the way
//  5. Compress the PDF with Ghostscript, falling back to the raw file
//  6. Optionally archive the articles and append them to the audit log
//
// Progress milestones are sent to Request.Progress; a nil reporter is
// fine and a slow one never blocks the pipeline.
//
// # Errors
//
// Validation failures (ErrMissingCredentials, ErrTooManyArticles,
// ErrInvalidFormat) happen before any network call. ErrNoArticles means
// nothing could be fetched. StatusCode maps errors to HTTP codes.
//
// # Browser Requirements
//
// PDF generation requires Chrome/Chromium. The go-rod library automatically
// downloads a managed Chromium instance on first run (~/.cache/rod/browser/).
//
// For containers and CI environments, set ROD_NO_SANDBOX=1 to disable the
// Chrome sandbox. Use ROD_BROWSER_BIN to specify a custom Chrome binary.
package later2pdf
