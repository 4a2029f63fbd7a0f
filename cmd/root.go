package main

import (
	"github.com/spf13/cobra"
)

func main() {
	var root = &cobra.Command{Use: "repscout"}

	root.AddCommand(serveCMD(), migrateCMD(), sitesCMD(), findCMD(), downloadCMD(), extractCMD(), exportCMD())
	_ = root.Execute()
}
