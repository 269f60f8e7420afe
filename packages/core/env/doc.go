// Package env loads .env files and expands ${VAR} references in
// configuration text.
//
// Sink credentials (DD_API_KEY, webhook URLs) are usually kept out of the
// check configuration and supplied through the environment or a .env file
// next to it.
package env
