// Package main is the epivalid command: it loads a rig config and prints the intrinsics, fundamental
// matrices, epipolar lines of picked pixels and residuals of pixel matches.
package main

import (
	"log"
	"os"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
