package httpapi

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"html/template"

	"github.com/i474232898/weather-map/internal/config"
	"github.com/i474232898/weather-map/internal/render"
)

//go:embed web/index.html
var indexHTML string

var indexTemplate = template.Must(template.New("index").Parse(indexHTML))

// Page renders the Leaflet map page.
type Page struct {
	view             config.MapView
	defaultCondition render.Condition
}

// NewPage creates a new Page centered on view.
func NewPage(view config.MapView, defaultCondition render.Condition) *Page {
	return &Page{view: view, defaultCondition: defaultCondition}
}

type pageData struct {
	Conditions       []render.Condition
	DefaultCondition render.Condition
	MapConfig        template.JS
}

// Render executes the page template.
func (p *Page) Render() ([]byte, error) {
	mapConfig, err := json.Marshal(map[string]any{
		"center":           []float64{p.view.CenterLat, p.view.CenterLon},
		"zoom":             p.view.Zoom,
		"tileURL":          p.view.TileURL,
		"attribution":      p.view.TileAttribution,
		"defaultCondition": p.defaultCondition,
	})
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	err = indexTemplate.Execute(&buf, pageData{
		Conditions:       render.Conditions,
		DefaultCondition: p.defaultCondition,
		MapConfig:        template.JS(mapConfig),
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
