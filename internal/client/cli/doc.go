// Package cli provides the codemap command-line client.
//
// It wires configuration, credential storage and the resilient API client,
// and exposes one-shot cobra commands as well as an interactive shell.
//
// Commands:
//   - login / logout / status: manage the stored session
//   - call METHOD PATH: send an arbitrary request through the client
//   - codes list|get|search|mappings: browse the code catalogue
//   - shell: read commands from stdin until "exit"
//
// Every command goes through apiclient, so refresh, retry and error
// classification behave exactly as they do for the dashboard.
package cli
