/*
Copyright © 2025 the commodore authors
SPDX-License-Identifier: Apache-2.0
*/
package main

import "github.com/mweibel/commodore/pkg/cli"

func main() {
	cli.Execute()
}
