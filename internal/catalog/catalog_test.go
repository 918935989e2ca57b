package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultCatalog(t *testing.T) {
	cities, err := NewLoader("", nil, nil).Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cities) == 0 {
		t.Fatal("expected built-in catalog to contain cities")
	}
	if cities[0].Name != "New York" {
		t.Fatalf("expected catalog order to be preserved, first city is %q", cities[0].Name)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cities.json")
	doc := `[{"name":"Boise","lat":43.615,"lon":-116.2023},{"name":"Reno","lat":39.5296,"lon":-119.8138}]`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	cities, err := NewLoader(path, nil, nil).Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cities) != 2 || cities[0].Name != "Boise" || cities[1].Name != "Reno" {
		t.Fatalf("unexpected cities: %+v", cities)
	}
	if cities[1].Lat != 39.5296 || cities[1].Lon != -119.8138 {
		t.Fatalf("unexpected coordinates: %+v", cities[1])
	}
}

func TestLoadFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"name":"Tulsa","lat":36.154,"lon":-95.9928}]`))
	}))
	defer srv.Close()

	cities, err := NewLoader(srv.URL+"/cities.json", srv.Client(), nil).Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cities) != 1 || cities[0].Name != "Tulsa" {
		t.Fatalf("unexpected cities: %+v", cities)
	}
}

func TestLoadUnavailable(t *testing.T) {
	notFound := httptest.NewServer(http.NotFoundHandler())
	defer notFound.Close()

	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return p
	}

	cases := map[string]string{
		"missing file":    filepath.Join(dir, "nope.json"),
		"http 404":        notFound.URL + "/cities.json",
		"malformed":       write("bad.json", `[{"name":`),
		"empty":           write("empty.json", `[]`),
		"missing name":    write("noname.json", `[{"lat":1,"lon":2}]`),
		"latitude range":  write("lat.json", `[{"name":"X","lat":91,"lon":2}]`),
		"no coordinates":  write("nocoords.json", `[{"name":"X"}]`),
		"not a list":      write("object.json", `{"name":"X","lat":1,"lon":2}`),
		"longitude range": write("lon.json", `[{"name":"X","lat":1,"lon":-181}]`),
	}

	for name, source := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewLoader(source, nil, nil).Load(context.Background())
			if !errors.Is(err, ErrCatalogUnavailable) {
				t.Fatalf("expected ErrCatalogUnavailable, got %v", err)
			}
		})
	}
}

type stubGeocoder struct {
	calls int
	err   error
}

func (g *stubGeocoder) Locate(_ context.Context, name string) (float64, float64, error) {
	g.calls++
	if g.err != nil {
		return 0, 0, g.err
	}
	return 10, 20, nil
}

func TestLoadGeocodesMissingCoordinates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cities.json")
	doc := `[{"name":"Boise","lat":43.615,"lon":-116.2023},{"name":"Reno"}]`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	g := &stubGeocoder{}
	cities, err := NewLoader(path, nil, g).Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.calls != 1 {
		t.Fatalf("expected one geocoder call, got %d", g.calls)
	}
	if cities[1].Lat != 10 || cities[1].Lon != 20 {
		t.Fatalf("expected geocoded coordinates, got %+v", cities[1])
	}

	g.err = errors.New("quota exceeded")
	if _, err := NewLoader(path, nil, g).Load(context.Background()); !errors.Is(err, ErrCatalogUnavailable) {
		t.Fatalf("expected ErrCatalogUnavailable on geocoder failure, got %v", err)
	}
}

func TestLoadRejectsPartialCoordinates(t *testing.T) {
	dir := t.TempDir()
	for name, doc := range map[string]string{
		"only-lat.json": `[{"name":"Reno","lat":39.5296}]`,
		"only-lon.json": `[{"name":"Reno","lon":-119.8138}]`,
	} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
			t.Fatalf("write catalog: %v", err)
		}

		g := &stubGeocoder{}
		_, err := NewLoader(path, nil, g).Load(context.Background())
		if !errors.Is(err, ErrCatalogUnavailable) {
			t.Fatalf("%s: expected ErrCatalogUnavailable, got %v", name, err)
		}
		if g.calls != 0 {
			t.Fatalf("%s: expected no geocoder call, got %d", name, g.calls)
		}
	}
}
