// Package configlibsql is the configuration shape for the sqlite-style
// database handle: a local file opened through modernc, or a remote
// libsql URL for deployments where the home-automation host and the
// scraper are different machines.
package configlibsql

import (
	"database/sql"
	"fmt"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

type Struct struct {
	File string `json:"file"`
	// Url selects the libsql driver when set, e.g. "libsql://host".
	Url string `json:"url"`
}

func (config Struct) OpenDB() (*sql.DB, error) {
	if config.Url != "" {
		return sql.Open("libsql", config.Url)
	}
	if config.File == "" {
		return nil, fmt.Errorf("database config: neither file nor url set")
	}
	return sql.Open("sqlite", config.File)
}
