package config

// DB holds the direct PostgreSQL connection used by the manual attachment conversion.
// DSN wins over the discrete fields when set.
type DB struct {
	DSN      string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	Extras   string
}
