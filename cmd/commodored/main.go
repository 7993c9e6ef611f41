/*
Copyright © 2025 the commodore authors
SPDX-License-Identifier: Apache-2.0
*/
package main

import (
	"log"

	"github.com/mweibel/commodore/pkg/api"
)

func main() {
	if err := api.Serve(); err != nil {
		log.Fatal(err)
	}
}
