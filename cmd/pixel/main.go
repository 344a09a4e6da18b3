package main

import (
	"fmt"
	"os"

	"github.com/c-bata/go-prompt"
	"github.com/joho/godotenv"

	"github.com/theleywin/love-on-the-pixel/src/client"
)

func main() {
	godotenv.Load()

	c := client.New(os.Getenv("PIXEL_API_URL"))
	if token := os.Getenv("PIXEL_TOKEN"); token != "" {
		c.SetToken(token)
	}
	sh := newShell(c, os.Stdout)

	fmt.Println("Welcome to Love on the Pixel")
	fmt.Println("Type 'help' to see available commands")

	p := prompt.New(
		sh.execute,
		sh.complete,
		prompt.OptionPrefix("> "),
		prompt.OptionTitle("Love on the Pixel"),
		prompt.OptionHistory([]string{}),
	)
	p.Run()
}
