// Package cmd implements the frostgate command line interface.
//
// The config subcommands manage the YAML file under <home>/config/config.yaml,
// and start runs a relayer service between the source and destination
// chains it describes until the process is interrupted.
package cmd
