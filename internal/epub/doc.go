// Package epub writes EPUB 3 books.
//
// A book is written as a zip archive whose first entry is the uncompressed
// "mimetype" file, followed by META-INF/container.xml and an OEBPS
// directory holding the package document, navigation (nav.xhtml and the
// legacy toc.ncx), chapters and images.
//
// Chapter bodies are HTML fragments; ToXHTML converts them into the
// well-formed XHTML that reading systems require.
package epub
