package main

import (
	"os"

	"github.com/db2fs/db2fs/app"
)

func main() {
	os.Exit(app.Execute())
}
