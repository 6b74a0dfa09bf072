// Package main is the entry point for invoicer.
//
//	@title			Invoicer - Invoice Calculation Service
//	@version		1.0
//	@description	Multi-tenant invoicing: totals, numbering, status lifecycle, payments and client views.
//
//	@contact.name	Invoicer Support
//	@contact.url	https://github.com/artpar/invoicer/issues
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/
package main

func main() {
	Execute()
}
