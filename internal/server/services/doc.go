// Package services contains server-side business logic.
//
// CredentialStore and SessionService implement the session core: password
// verification and the lifecycle of rotating refresh records. UserService,
// ProjectService, TaskService and FileService are the resource operations,
// each gated by the authorization rules of package auth.
package services
