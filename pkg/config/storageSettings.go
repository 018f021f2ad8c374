package config

// StorageSettings points at the local directory downloaded files are
// written to.
type StorageSettings struct {
	Path string `mapstructure:"path" validate:"required"`
}

// MetadataSettings selects where delivery-receipt records are kept.
// Type is one of "file", "postgres" or "mongo"; Path, DSN and URI feed
// the matching repository.
type MetadataSettings struct {
	Type string `mapstructure:"type" validate:"required,oneof=file postgres mongo"`
	Path string `mapstructure:"path"`
	DSN  string `mapstructure:"dsn"`
	URI  string `mapstructure:"uri"`
}
