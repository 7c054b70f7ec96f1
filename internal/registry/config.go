package registry

import (
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Config parameterizes the generic registry client for one national
// business registry. Country adapters are configuration data, not code:
// every registry exposes the same four capabilities (paged listing, single
// record, change feed, relations) behind different endpoint paths.
type Config struct {
	Country   string `yaml:"country" mapstructure:"country"`
	Name      string `yaml:"name" mapstructure:"name"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`

	// Endpoint paths relative to BaseURL.
	EntitiesPath    string `yaml:"entities_path" mapstructure:"entities_path"`
	SubEntitiesPath string `yaml:"subentities_path" mapstructure:"subentities_path"`
	ChangesPath     string `yaml:"changes_path" mapstructure:"changes_path"`
	RelationsPath   string `yaml:"relations_path" mapstructure:"relations_path"`

	// Retry and throttling.
	MaxRetries     int           `yaml:"max_retries" mapstructure:"max_retries"`
	RetryBaseDelay time.Duration `yaml:"retry_base_delay" mapstructure:"retry_base_delay"`
	RequestsPerSec float64       `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	Timeout        time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// Norway returns the configuration for the Norwegian Brønnøysund registry,
// the reference adapter.
func Norway() Config {
	return Config{
		Country:         "NO",
		Name:            "Brønnøysundregistrene",
		BaseURL:         "https://data.brreg.no",
		EntitiesPath:    "/enhetsregisteret/api/enheter",
		SubEntitiesPath: "/enhetsregisteret/api/underenheter",
		ChangesPath:     "/enhetsregisteret/api/oppdateringer/enheter",
		RelationsPath:   "/enhetsregisteret/api/enheter/%s/roller",
	}
}

// Sweden returns the configuration for the Swedish Bolagsverket registry.
func Sweden() Config {
	return Config{
		Country:         "SE",
		Name:            "Bolagsverket",
		BaseURL:         "https://api.bolagsverket.se",
		EntitiesPath:    "/foretagsinformation/v1/organisationer",
		SubEntitiesPath: "/foretagsinformation/v1/arbetsstallen",
		ChangesPath:     "/foretagsinformation/v1/uppdateringar",
		RelationsPath:   "/foretagsinformation/v1/organisationer/%s/funktionarer",
	}
}

// Denmark returns the configuration for the Danish CVR registry.
func Denmark() Config {
	return Config{
		Country:         "DK",
		Name:            "Det Centrale Virksomhedsregister",
		BaseURL:         "https://cvrapi.dk",
		EntitiesPath:    "/api/virksomheder",
		SubEntitiesPath: "/api/produktionsenheder",
		ChangesPath:     "/api/opdateringer",
		RelationsPath:   "/api/virksomheder/%s/deltagere",
	}
}

// Finland returns the configuration for the Finnish YTJ registry.
func Finland() Config {
	return Config{
		Country:         "FI",
		Name:            "Yritys- ja yhteisötietojärjestelmä",
		BaseURL:         "https://avoindata.prh.fi",
		EntitiesPath:    "/opendata-ytj-api/v3/companies",
		SubEntitiesPath: "/opendata-ytj-api/v3/establishments",
		ChangesPath:     "/opendata-ytj-api/v3/updates",
		RelationsPath:   "/opendata-ytj-api/v3/companies/%s/officers",
	}
}

// ForCountry returns the preset configuration for a two-letter country code.
func ForCountry(code string) (Config, error) {
	switch code {
	case "NO", "no", "":
		return Norway(), nil
	case "SE", "se":
		return Sweden(), nil
	case "DK", "dk":
		return Denmark(), nil
	case "FI", "fi":
		return Finland(), nil
	default:
		return Config{}, eris.Errorf("registry: unknown country %q", code)
	}
}

func (c Config) applyDefaults() Config {
	if c.UserAgent == "" {
		c.UserAgent = "leadscout/1.0"
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = time.Second
	}
	if c.RequestsPerSec <= 0 {
		c.RequestsPerSec = 10
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return c
}

func (c Config) limiter() *rate.Limiter {
	burst := int(c.RequestsPerSec)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(c.RequestsPerSec), burst)
}
