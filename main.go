// Command apodex archives Astronomy Picture of the Day pages and media.
package main

import "github.com/JakeFAU/apodex/cmd"

func main() {
	cmd.Execute()
}
