package main

// General API documentation for swaggo. Build with -tags=swagger to serve it.
//
// @title           bindprobe diagnostics API
// @version         1.0
// @description     Read-only status surface for the bind-event conformance probe.
//
// @BasePath  /
//
// @schemes http
