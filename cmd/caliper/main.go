// main is the entry point of the caliper CLI.
package main

import (
	"github.com/huangsam/caliper/cmd"
	"github.com/huangsam/caliper/internal/contract"
	"github.com/huangsam/caliper/internal/iocache"
)

func main() {
	cmd.SetStoreManager(iocache.Manager)
	err := cmd.Execute()
	iocache.CloseStores()
	if err != nil {
		contract.LogFatal("Command failed", err)
	}
}
