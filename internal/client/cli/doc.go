// Package cli provides the interactive TaskHub command-line client.
//
// It wires configuration, the HTTP API client and a small REPL. The session
// lives in the client: the access token in memory and the refresh cookie in
// its cookie jar, so the session ends with the process.
//
// Commands:
//   - register / login / logout
//   - me, users, projects, project <id>
//   - set-role <userID> <admin|member>, logout-all <userID> (admin)
//   - attach <projectID> <taskID> <path>, download <projectID> <taskID> <fileID> [dest]
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
