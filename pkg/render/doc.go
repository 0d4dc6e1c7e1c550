// Package render turns declared pages into HTML.
//
// Pages are declared ahead of time with the context keys their template
// expects. New parses all of them at startup; Render checks the declared keys
// before executing the template and reports every failure as a *RenderError.
package render
