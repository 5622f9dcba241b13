// Package confloader provides configuration loading mechanism.
//
// It uses koanf to load configuration from multiple sources. Later sources
// override earlier ones:
//
//  1. Default values (the target struct as passed in)
//  2. Configuration file (YAML)
//  3. Environment variables (PERFLOG_ prefix)
//  4. Command-line flags (via LoadMap)
package confloader
