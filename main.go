package main

import (
	"time"

	"custody/app"
)

func main() {
	// day buckets and time windows are computed on UTC unix time
	time.Local = time.UTC
	app.Run()
}
