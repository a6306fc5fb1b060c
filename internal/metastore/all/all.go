// Package all registers every built-in metastore backend. Import it for side
// effects from the binary that calls metastore.Open.
package all

import (
	_ "doc2db/internal/metastore/mssql"
	_ "doc2db/internal/metastore/mysql"
	_ "doc2db/internal/metastore/postgres"
	_ "doc2db/internal/metastore/sqlite"
)
