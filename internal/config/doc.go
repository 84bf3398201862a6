// Package config implements configuration loading for the library gateway.
//
// Values are layered: built-in defaults, an optional YAML file, an optional
// .env file, then process environment. Invalid environment values are
// ignored so a typo never replaces a working setting with a zero value.
package config
