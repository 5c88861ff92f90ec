// Package application holds the application-facing cluster structures
// (Application Basic, Application Launcher, Content Launcher, Media
// Playback) and their TLV bindings.
//
// Each structure exposes ToTLV / <Name>FromTLV for embedding in a larger
// pass and String for debugging. Field tables live next to the types;
// encoding rules come from internal/protocol/schema.
package application
