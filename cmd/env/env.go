package env

const (
	// Prefix is the prefix of every bankrates environment variable
	Prefix = "BANKRATES"

	// DBURLSuffix is the suffix of the Postgres connection URL variable
	DBURLSuffix = "_DB_URL"
)
