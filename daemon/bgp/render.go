package bgp

import (
	"embed"
	"strings"
	"text/template"

	"github.com/pkg/errors"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// neighborArgs is the input of the neighbor templates.
type neighborArgs struct {
	LocalASN  string
	Addr      string
	RemoteASN string
	Name      string
	LocalAddr string
	AdminDown bool
}

// render executes the named template into a config string.
func render(name string, args neighborArgs) (string, error) {
	var b strings.Builder
	if err := templates.ExecuteTemplate(&b, name, args); err != nil {
		return "", errors.Wrapf(err, "render %s", name)
	}
	return b.String(), nil
}
