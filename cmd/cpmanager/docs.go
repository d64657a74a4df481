package main

// General API documentation for swaggo. Run `swag init -g cmd/cpmanager/docs.go` to regenerate docs.
//
// @title           cpmanager API
// @version         1.0
// @description     Admin API of the central processor lifecycle manager.
//
// @contact.name   cpmanager maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
