// Command pricer prices purchase files offline and manages the pricing database.
package main

import (
	"os"

	"github.com/Simplici0/partpricing/pkg/logx"
)

func main() {
	logx.Init()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
