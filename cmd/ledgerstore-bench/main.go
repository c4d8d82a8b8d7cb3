// Command ledgerstore-bench drives the storage and read-path core
// directly against a Cassandra cluster, for seeding benchmark data and
// exercising the range and retention operations outside of a full ETL
// pipeline.
package main

import "github.com/xrplreport/ledgerstore/internal/ledgerstore/cli"

func main() {
	cli.Execute()
}
