// Package assets provides the stylesheet, templates, cover image and fonts
// used to lay out converted documents.
//
// # Loader Architecture
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - built-in assets compiled into the binary
//	    ├── FilesystemLoader  - assets from a custom directory on disk
//	    └── AssetResolver     - custom first, embedded as fallback
//
// AssetResolver is what the converter uses: a custom directory only needs
// the files it overrides.
//
// # Directory Structure
//
//	{basePath}/
//	├── styles/
//	│   └── {name}.css
//	├── templates/
//	│   └── {name}/
//	│       ├── document.html    # page skeleton with article sections
//	│       └── cover.html       # cover page wrapper
//	└── images/
//	    └── {name}.svg           # e.g. cover.svg
//
// Fonts are read separately from a font directory (see LoadFonts) since
// they are licensed files that are never embedded.
//
// # Security
//
// Asset names are validated before use. FilesystemLoader resolves
// symlinks and verifies paths stay within basePath.
package assets
