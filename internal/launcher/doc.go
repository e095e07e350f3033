// Package launcher finds installed desktop applications and starts them.
package launcher
