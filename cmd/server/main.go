// Package main runs the hexlink URL shortener.
//
//	@title			Hexlink URL Shortener API
//	@version		1.0
//	@description	Issues short hexadecimal aliases for URLs and redirects them back
//	@host			localhost:8080
//	@BasePath		/
//	@schemes		http https
package main

import (
	"go.uber.org/fx"

	_ "github.com/sp3dr4/hexlink/docs"
	hexlinkfx "github.com/sp3dr4/hexlink/internal/fx"
)

func main() {
	fx.New(hexlinkfx.HTTPServerModules).Run()
}
