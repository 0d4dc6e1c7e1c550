package pages

import "github.com/aescanero/stargazer/pkg/render"

// LayoutFile is the shared layout every page is parsed with
const LayoutFile = "layout.html"

// Declared pages and the context keys each template expects
var (
	Index  = render.Page{Name: "index", File: "index.html", Keys: []string{"serverTime"}}
	Advice = render.Page{Name: "advice", File: "advice.html", Keys: []string{"data"}}
	APOD   = render.Page{Name: "apod", File: "apod.html", Keys: []string{"data"}}
	Params = render.Page{Name: "params", File: "params.html", Keys: []string{"name"}}
	Error  = render.Page{Name: "error", File: "error.html", Keys: []string{"status", "message"}}
)

// Catalog returns every declared page
func Catalog() []render.Page {
	return []render.Page{Index, Advice, APOD, Params, Error}
}
