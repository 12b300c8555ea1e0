package config

import (
	"fmt"
	"log"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/i474232898/audible-weather/internal/weather"
)

var validate = validator.New()

// forecastDurations are the daily forecast lengths Azure Maps accepts.
var forecastDurations = []int{1, 5, 10, 15, 25, 45}

const (
	MapsAzure     = "azure"
	MapsOpenMeteo = "openmeteo"

	JournalMemory = "memory"
	JournalSQLite = "sqlite"
)

type AppConfig struct {
	// MapsProvider selects the weather source: "azure" or "openmeteo".
	MapsProvider     string
	AzureMapsKey     string
	AzureMapsBaseURL string
	OpenMeteoBaseURL string

	// GoogleGeocodingAPIKey switches reverse geocoding to Google when set.
	GoogleGeocodingAPIKey string

	SpeechKey          string
	SpeechRegion       string
	SpeechEndpoint     string
	SpeechVoice        string
	SpeechOutputFormat string
	PlayerCommand      string

	ForecastDays int
	HTTPTimeout  time.Duration

	// AnnounceInterval controls how often the current weather is spoken for
	// each location (0 = disabled).
	AnnounceInterval time.Duration
	Locations        []weather.Location

	// Narration journal.
	JournalDriver     string
	JournalPath       string
	JournalMaxRecords int           // max number of records kept in memory (0 = unlimited)
	JournalMaxAge     time.Duration // max age of records (0 = unlimited)

	Port string
}

// fileConfig is the optional YAML file named by CONFIG_FILE.
type fileConfig struct {
	Announce struct {
		Interval  string             `yaml:"interval"`
		Locations []weather.Location `yaml:"locations"`
	} `yaml:"announce"`
}

// Load reads configuration from an optional .env file, an optional YAML file
// and the environment, in increasing order of precedence.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	var file fileConfig
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read CONFIG_FILE: %w", err)
		}
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse CONFIG_FILE: %w", err)
		}
	}

	cfg.MapsProvider = getenvDefault("MAPS_PROVIDER", MapsAzure)
	if cfg.MapsProvider != MapsAzure && cfg.MapsProvider != MapsOpenMeteo {
		return nil, fmt.Errorf("invalid MAPS_PROVIDER %q: use %q or %q", cfg.MapsProvider, MapsAzure, MapsOpenMeteo)
	}
	cfg.AzureMapsKey = os.Getenv("AZURE_MAPS_KEY")
	cfg.AzureMapsBaseURL = getenvDefault("AZURE_MAPS_BASE_URL", "https://atlas.microsoft.com")
	cfg.OpenMeteoBaseURL = getenvDefault("OPEN_METEO_BASE_URL", "https://api.open-meteo.com/v1/forecast")
	cfg.GoogleGeocodingAPIKey = os.Getenv("GOOGLE_GEOCODING_API_KEY")

	cfg.SpeechKey = os.Getenv("AZURE_SPEECH_KEY")
	cfg.SpeechRegion = os.Getenv("AZURE_SPEECH_REGION")
	cfg.SpeechEndpoint = os.Getenv("AZURE_SPEECH_ENDPOINT")
	cfg.SpeechVoice = getenvDefault("SPEECH_VOICE", "en-US-AvaNeural")
	cfg.SpeechOutputFormat = getenvDefault("SPEECH_OUTPUT_FORMAT", "riff-24khz-16bit-mono-pcm")
	cfg.PlayerCommand = getenvDefault("SPEECH_PLAYER_CMD", "aplay -q -")

	cfg.ForecastDays = getenvInt("FORECAST_DAYS", 5)
	if !slices.Contains(forecastDurations, cfg.ForecastDays) {
		return nil, fmt.Errorf("invalid FORECAST_DAYS %d: must be one of %v", cfg.ForecastDays, forecastDurations)
	}

	timeout, err := getenvDuration("HTTP_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}
	cfg.HTTPTimeout = timeout

	// Announcements: env overrides the file.
	intervalStr := file.Announce.Interval
	if intervalStr == "" {
		intervalStr = "0"
	}
	interval, err := getenvDuration("ANNOUNCE_INTERVAL", intervalStr)
	if err != nil {
		return nil, err
	}
	cfg.AnnounceInterval = interval

	locs := file.Announce.Locations
	if raw := os.Getenv("ANNOUNCE_LOCATIONS"); raw != "" {
		locs, err = parseLocations(raw)
		if err != nil {
			return nil, err
		}
	}
	for _, loc := range locs {
		if err := validate.Struct(loc.Coordinates); err != nil {
			return nil, fmt.Errorf("invalid location %s: %w", loc.Key(), err)
		}
	}
	cfg.Locations = locs

	cfg.JournalDriver = getenvDefault("JOURNAL_DRIVER", JournalMemory)
	if cfg.JournalDriver != JournalMemory && cfg.JournalDriver != JournalSQLite {
		return nil, fmt.Errorf("invalid JOURNAL_DRIVER %q: use %q or %q", cfg.JournalDriver, JournalMemory, JournalSQLite)
	}
	cfg.JournalPath = getenvDefault("JOURNAL_PATH", "data/narrations.db")
	cfg.JournalMaxRecords = getenvInt("JOURNAL_MAX_RECORDS", 500)

	maxAge, err := getenvDuration("JOURNAL_MAX_AGE", "168h")
	if err != nil {
		return nil, err
	}
	cfg.JournalMaxAge = maxAge

	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

// parseLocations parses "name@lat,lon;lat,lon" lists. The name is optional.
func parseLocations(raw string) ([]weather.Location, error) {
	var locs []weather.Location
	for _, item := range strings.Split(raw, ";") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		var loc weather.Location
		if name, rest, ok := strings.Cut(item, "@"); ok {
			loc.Name = strings.TrimSpace(name)
			item = rest
		}

		latStr, lonStr, ok := strings.Cut(item, ",")
		if !ok {
			return nil, fmt.Errorf("invalid ANNOUNCE_LOCATIONS entry %q: expected lat,lon", item)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude in %q: %w", item, err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude in %q: %w", item, err)
		}
		loc.Coordinates = weather.GeoCoordinates{Latitude: lat, Longitude: lon}
		locs = append(locs, loc)
	}
	return locs, nil
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

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
