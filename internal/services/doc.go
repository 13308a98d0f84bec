// Package services defines the streaming library and genre catalog
// interfaces and their Spotify implementation.
package services
