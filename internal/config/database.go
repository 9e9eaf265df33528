// internal/config/database.go
package config

import (
	"strconv"
	"strings"
)

const applicationName = "farmlink-backend"

var dsnEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// DSN builds a libpq key/value connection string. Empty settings are left out
// so the driver defaults apply.
func (d *DatabaseConfig) DSN() string {
	params := [][2]string{
		{"host", d.Host},
		{"port", d.Port},
		{"user", d.User},
		{"password", d.Password},
		{"dbname", d.Database},
		{"sslmode", d.SSLMode},
		{"TimeZone", d.TimeZone},
		{"application_name", applicationName},
	}
	if d.ConnectTimeout > 0 {
		params = append(params, [2]string{"connect_timeout", strconv.Itoa(d.ConnectTimeout)})
	}

	parts := make([]string, 0, len(params))
	for _, param := range params {
		if param[1] == "" {
			continue
		}
		parts = append(parts, param[0]+"="+quoteDSNValue(param[1]))
	}
	return strings.Join(parts, " ")
}

func quoteDSNValue(value string) string {
	if !strings.ContainsAny(value, ` '\`) {
		return value
	}
	return "'" + dsnEscaper.Replace(value) + "'"
}
