// Copyright © 2026 The ti99-dskimg-lib Authors

package main

import (
	"github.com/miriki/ti99-dskimg-lib-sub001/cmd"
)

func main() {
	cmd.Execute()
}
