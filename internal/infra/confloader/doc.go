// Package confloader loads layered configuration with koanf.
//
// Sources, highest priority first:
//
//  1. Command-line flags (passed as a key/value map)
//  2. Environment variables (RESPKV_SECTION__KEY)
//  3. The YAML configuration file
//  4. Values already present in the target struct
//
// Watcher reports changes to the configuration file so selected settings,
// such as the log level, can be reapplied without a restart.
package confloader
