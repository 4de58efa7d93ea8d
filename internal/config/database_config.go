package config

type DatabaseConfig interface {
	GetDatabaseURL() string
	GetDatabaseDebug() bool
}

type Database struct{}

var _ DatabaseConfig = Database{}

// GetDatabaseURL is a postgres DSN. When empty the service keeps tokens and
// form configs in memory.
func (Database) GetDatabaseURL() string {
	return GetEnv("DATABASE_URL", "")
}

func (Database) GetDatabaseDebug() bool {
	return GetEnvBool("DB_DEBUG", false)
}
