package redirect

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/WankioM/property-qr/internal/models"
)

//go:embed templates/*.html
var templateFiles embed.FS

var pages = template.Must(template.ParseFS(templateFiles, "templates/*.html"))

// HomeURL is where the error page sends visitors.
const HomeURL = "https://daobitat.xyz"

type landingView struct {
	*models.ScanRedirectData
	AutoRedirectMs int
}

type errorView struct {
	Message    string
	PropertyID string
	HomeURL    string
}

// RenderLanding renders the dual choice page.
func RenderLanding(data *models.ScanRedirectData) ([]byte, error) {
	return render("landing.html", landingView{
		ScanRedirectData: data,
		AutoRedirectMs:   AutoRedirectSeconds * 1000,
	})
}

// RenderError renders the error page shown for failed scans.
func RenderError(message, propertyID string) ([]byte, error) {
	return render("error.html", errorView{
		Message:    message,
		PropertyID: propertyID,
		HomeURL:    HomeURL,
	})
}

func render(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
