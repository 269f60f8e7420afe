// Package config loads heartbeat check configuration.
//
// A configuration file is YAML (heartbeat.yaml, .heartbeat.yaml) or JSON
// (heartbeat.json), chosen by extension. ${VAR} references are expanded from
// the environment before decoding, so secrets can come from a .env file.
package config
