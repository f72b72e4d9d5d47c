// Package commands defines the userdata CLI.
//
// Commands
//
//   - add        Prompt for (or read) one user record, validate it and save it
//   - provision  Create the database and users table if they are missing
//   - serve      Run the HTTP intake server
//
// Running userdata with no subcommand is the same as userdata add.
//
// # Implementation
//
// The root command loads the env file, parses configuration and sets up
// logging before any subcommand runs. Every run gets a run_id so its log
// entries can be correlated. Errors are printed once as "Error: <message>"
// on stderr and the process exits with status 1.
package commands
