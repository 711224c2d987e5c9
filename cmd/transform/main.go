package main

import "os"

// @title Transform Pipeline API
// @version 1.0
// @description JSON-to-flat-table transformation service: record discovery, plan execution, schema inference and CSV export.
// @BasePath /api/v1
func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
