// Package confloader loads layered configuration with koanf and watches
// configuration files with fsnotify.
//
// Priority (highest to lowest):
//
//  1. Command-line flags (LoadMap)
//  2. Environment variables (NETVERIFY_SECTION_KEY)
//  3. Configuration file (YAML)
//  4. Defaults (WithDefaults)
package confloader
