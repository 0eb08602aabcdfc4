// The main package for the recipes executable.
package main

import (
	"github.com/JakeFAU/lowcarb-recipe-crawler/cmd"
)

func main() {
	cmd.Execute()
}
