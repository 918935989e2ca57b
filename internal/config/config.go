package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// MapView is the initial map position and tile layer.
type MapView struct {
	CenterLat       float64 `validate:"gte=-90,lte=90"`
	CenterLon       float64 `validate:"gte=-180,lte=180"`
	Zoom            int     `validate:"gte=0,lte=19"`
	TileURL         string  `validate:"required"`
	TileAttribution string
}

type AppConfig struct {
	Port string `validate:"required"`

	// Provider selects the weather source.
	Provider          string `validate:"oneof=openweathermap openmeteo weatherapi"`
	OpenWeatherAPIKey string
	WeatherAPIKey     string

	// CatalogSource is a file path or http(s) URL; empty uses the built-in catalog.
	CatalogSource   string
	GeocoderAPIKey  string
	GeocoderCountry string

	HTTPTimeout time.Duration `validate:"gt=0"`
	FetchPolicy string        `validate:"oneof=all-or-nothing partial"`

	// RefreshInterval redraws the active condition periodically (0 = never).
	RefreshInterval time.Duration `validate:"gte=0"`

	DefaultCondition string `validate:"oneof=temperature precipitation wind"`

	Map MapView
}

var validate = validator.New()

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.Provider = getenvDefault("WEATHER_PROVIDER", "openweathermap")
	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.WeatherAPIKey = os.Getenv("WEATHERAPI_API_KEY")
	cfg.CatalogSource = os.Getenv("CATALOG_SOURCE")
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")
	cfg.GeocoderCountry = getenvDefault("GEOCODER_COUNTRY", "US")
	cfg.FetchPolicy = getenvDefault("FETCH_POLICY", "all-or-nothing")
	cfg.DefaultCondition = getenvDefault("DEFAULT_CONDITION", "temperature")

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", "0"); err != nil {
		return nil, err
	}

	// Continental US.
	cfg.Map = MapView{
		CenterLat:       getenvFloat("MAP_CENTER_LAT", 37.0902),
		CenterLon:       getenvFloat("MAP_CENTER_LON", -95.7129),
		Zoom:            getenvInt("MAP_ZOOM", 4),
		TileURL:         getenvDefault("TILE_URL", "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"),
		TileAttribution: getenvDefault("TILE_ATTRIBUTION", "© OpenStreetMap contributors"),
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Provider == "openweathermap" && cfg.OpenWeatherAPIKey == "" {
		log.Println("WARN: OPENWEATHER_API_KEY is not set; every weather fetch will fail")
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
