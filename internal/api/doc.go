// Package api contains the HTTP handlers for slide upload, analysis dispatch,
// task polling and account management. Every response, success or error, is
// written as a {code, msg, data} envelope through the shared package.
package api
