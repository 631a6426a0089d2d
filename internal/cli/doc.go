// Package cli builds the atlasgrid command tree and translates flags into an
// app.Config. It isolates the command-line framework from the application.
package cli
