// Package sanitize rewrites article HTML into safe, renderer-friendly markup.
//
// Each pass parses the fragment permissively, strips unsafe markup with a
// bluemonday policy, drops images that cannot be fetched, and normalizes
// figure/caption groups to a fixed class scheme:
//
//	<figure class="image-figure">
//	  <img src="https://...">
//	  ...
//	  <figcaption class="image-caption">...</figcaption>
//	</figure>
//
// The output is well-formed for any input and re-sanitizing it is a no-op.
package sanitize
