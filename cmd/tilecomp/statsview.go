package main

import (
	"fmt"
	"io"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

const (
	statsviewAddr = "localhost:12600"
	statsviewPath = "/debug/statsview"
)

// launchStatsview starts the runtime stats server on its own goroutine.
func launchStatsview(out io.Writer) {
	go func() {
		viewer.SetConfiguration(viewer.WithAddr(statsviewAddr))
		mgr := statsview.New()
		mgr.Start()
	}()
	fmt.Fprintf(out, "stats server available at http://%s%s\n", statsviewAddr, statsviewPath)
}
