package config

type Config struct {
	// cron schedule used when not running with -single-run
	UpdateFrequency string `json:"updateFrequency"`
	// number of countries processed at the same time
	Workers int `json:"workers"`
	// ISO3 codes to import, empty imports every country
	Countries []string `json:"countries"`

	FTS    FTSConfig    `json:"fts"`
	Output OutputConfig `json:"output"`
	SQL    SQLConfig    `json:"sql"`
	Influx InfluxConfig `json:"influx"`
}

type Secrets struct {
	SQL    SqlSecrets
	Influx InfluxSecrets

	// Alternative to the SQL struct, designed to be used with heroku env variable
	DatabaseURL string `env:"DATABASE_URL"`
}

///////////////////////////////////////////////////////////////////////////////////////
// FTS
///////////////////////////////////////////////////////////////////////////////////////

type FTSConfig struct {
	BaseURL        string `json:"baseURL"`
	V2BaseURL      string `json:"v2BaseURL"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
	// first year of the funding trend window when a country has no plans
	StartYear int `json:"startYear"`
}

type OutputConfig struct {
	Folder string `json:"folder"`
}

///////////////////////////////////////////////////////////////////////////////////////
// Stores
///////////////////////////////////////////////////////////////////////////////////////

type SQLConfig struct {
	Enabled   bool   `json:"enabled"`
	Database  string `json:"database"`
	Table     string `json:"table"`
	BatchSize int    `json:"batchSize"`
}

type InfluxConfig struct {
	Enabled     bool   `json:"enabled"`
	Database    string `json:"database"`
	Measurement string `json:"measurement"`
}

type SqlSecrets struct {
	SqlHost     string `env:"SQL_HOST"`
	SqlUsername string `env:"SQL_USERNAME"`
	SqlPassword string `env:"SQL_PASSWORD"`
}

type InfluxSecrets struct {
	InfluxEndpoint string `env:"INFLUX_ENDPOINT"`
	InfluxUsername string `env:"INFLUX_USERNAME"`
	InfluxPassword string `env:"INFLUX_PASSWORD"`
}
